// Package pe implements self-contained structural parsing of PE/COFF
// binaries: headers, sections, import/export tables, the resource tree and
// version resources, all decoded directly from the on-disk byte layout.
package pe

import (
	"encoding/binary"
	"fmt"
)

// Image is an immutable in-memory copy of a PE file. Every accessor is
// bounds checked: offsets come from the file itself and are therefore
// attacker controlled, so a bad offset must yield ErrOutOfBounds, never a
// panic or a read past the buffer. All multi-byte reads are little-endian.
type Image struct {
	data []byte
}

// NewImage wraps raw file contents. The caller must not modify data
// afterwards.
func NewImage(data []byte) *Image {
	return &Image{data: data}
}

// Len returns the total image size in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

func (img *Image) check(offset, width uint32) error {
	if uint64(offset)+uint64(width) > uint64(len(img.data)) {
		return fmt.Errorf("%w: offset 0x%X width %d in %d-byte image",
			ErrOutOfBounds, offset, width, len(img.data))
	}
	return nil
}

// U8 reads one byte at offset.
func (img *Image) U8(offset uint32) (uint8, error) {
	if err := img.check(offset, 1); err != nil {
		return 0, err
	}
	return img.data[offset], nil
}

// U16 reads a little-endian uint16 at offset.
func (img *Image) U16(offset uint32) (uint16, error) {
	if err := img.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(img.data[offset:]), nil
}

// U32 reads a little-endian uint32 at offset.
func (img *Image) U32(offset uint32) (uint32, error) {
	if err := img.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(img.data[offset:]), nil
}

// U64 reads a little-endian uint64 at offset.
func (img *Image) U64(offset uint32) (uint64, error) {
	if err := img.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(img.data[offset:]), nil
}

// Bytes returns n bytes starting at offset. The returned slice aliases the
// image and must be treated as read-only.
func (img *Image) Bytes(offset, n uint32) ([]byte, error) {
	if err := img.check(offset, n); err != nil {
		return nil, err
	}
	return img.data[offset : offset+n], nil
}

// CString reads a NUL-terminated ASCII string at offset, reading at most max
// bytes. A string truncated by the buffer end or by max is returned as-is;
// only an offset already outside the image is an error.
func (img *Image) CString(offset uint32, max int) (string, error) {
	if err := img.check(offset, 1); err != nil {
		return "", err
	}
	end := uint64(offset) + uint64(max)
	if end > uint64(len(img.data)) {
		end = uint64(len(img.data))
	}
	for i := offset; uint64(i) < end; i++ {
		if img.data[i] == 0 {
			return string(img.data[offset:i]), nil
		}
	}
	return string(img.data[offset:end]), nil
}

// Shorthands for decoding already bounds-checked slices.
func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func le64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
