package pe

import "fmt"

// fixedFileInfoSignature marks a VS_FIXEDFILEINFO structure.
const fixedFileInfoSignature = 0xFEEF04BD

// VersionString is one key/value pair from a version-resource string table.
// Pairs keep their insertion order.
type VersionString struct {
	Key   string
	Value string
}

// FixedVersion holds the numeric versions decoded from VS_FIXEDFILEINFO.
type FixedVersion struct {
	FileVersion    string
	ProductVersion string
}

// verBlock is one self-describing block of a VS_VERSIONINFO resource:
// wLength, wValueLength, wType, a NUL-terminated UTF-16 key, then (after
// 4-byte alignment) the value and any child blocks. Because every block
// stores its own total length, unknown block types can be skipped.
type verBlock struct {
	key       string
	valueType int
	valueOff  int
	valueLen  int // bytes
	childOff  int
	end       int
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func parseVerBlock(data []byte, off, limit int) (verBlock, bool) {
	if off < 0 || off+6 > limit || limit > len(data) {
		return verBlock{}, false
	}
	length := int(le16(data[off:]))
	valueLen := int(le16(data[off+2:]))
	valueType := int(le16(data[off+4:]))
	if length < 6 {
		return verBlock{}, false
	}
	end := off + length
	if end > limit {
		end = limit
	}

	// Key: UTF-16 up to the first NUL word.
	keyStart := off + 6
	i := keyStart
	for i+1 < end && !(data[i] == 0 && data[i+1] == 0) {
		i += 2
	}
	if i+1 >= end {
		return verBlock{}, false
	}
	key := decodeUTF16(data[keyStart:i])

	valueOff := align4(i + 2)
	valueBytes := valueLen
	if valueType == 1 {
		// Text values count wValueLength in 16-bit words.
		valueBytes = valueLen * 2
	}
	return verBlock{
		key:       key,
		valueType: valueType,
		valueOff:  valueOff,
		valueLen:  valueBytes,
		childOff:  align4(valueOff + valueBytes),
		end:       end,
	}, true
}

// eachChild walks the child blocks between childOff and end.
func (b verBlock) eachChild(data []byte, fn func(verBlock)) {
	off := b.childOff
	for off+6 <= b.end {
		child, ok := parseVerBlock(data, off, b.end)
		if !ok {
			return
		}
		fn(child)
		next := align4(child.end)
		if next <= off {
			return
		}
		off = next
	}
}

// textValue decodes a block's UTF-16 text value up to its NUL terminator.
func (b verBlock) textValue(data []byte) string {
	start := b.valueOff
	end := start + b.valueLen
	if end > b.end {
		end = b.end
	}
	if start >= end {
		return ""
	}
	i := start
	for i+1 < end && !(data[i] == 0 && data[i+1] == 0) {
		i += 2
	}
	return decodeUTF16(data[start:i])
}

// DecodeVersionInfo parses the raw bytes of a located VERSION resource leaf.
// It decodes the top-level VS_VERSIONINFO block, its VS_FIXEDFILEINFO value
// when present, and every StringFileInfo string table in order. Unknown or
// truncated blocks degrade to an empty result rather than failing: callers
// get whatever could be learned from the blob.
func DecodeVersionInfo(data []byte) ([]VersionString, *FixedVersion) {
	root, ok := parseVerBlock(data, 0, len(data))
	if !ok || root.key != "VS_VERSION_INFO" {
		return nil, nil
	}

	var fixed *FixedVersion
	if root.valueLen >= 24 && root.valueOff+24 <= len(data) {
		v := data[root.valueOff:]
		if le32(v) == fixedFileInfoSignature {
			fixed = &FixedVersion{
				FileVersion:    dottedVersion(le32(v[8:]), le32(v[12:])),
				ProductVersion: dottedVersion(le32(v[16:]), le32(v[20:])),
			}
		}
	}

	var strings []VersionString
	root.eachChild(data, func(fileInfo verBlock) {
		// VarFileInfo and unknown blocks are skipped via their length.
		if fileInfo.key != "StringFileInfo" {
			return
		}
		fileInfo.eachChild(data, func(table verBlock) {
			// One table per language/codepage pair.
			table.eachChild(data, func(str verBlock) {
				strings = append(strings, VersionString{
					Key:   str.key,
					Value: str.textValue(data),
				})
			})
		})
	})
	return strings, fixed
}

func dottedVersion(ms, ls uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", ms>>16, ms&0xFFFF, ls>>16, ls&0xFFFF)
}
