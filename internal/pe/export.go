package pe

import "fmt"

const exportDirectorySize = 40

// maxExports caps the address/name arrays so a hostile count field cannot
// force a huge allocation.
const maxExports = 65536

// ExportDirectory is IMAGE_EXPORT_DIRECTORY.
type ExportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// ExportEntry is one exported function. Name is empty for exports reachable
// only by ordinal.
type ExportEntry struct {
	Ordinal uint16
	RVA     uint32
	Name    string
}

// ParseExports reads the export directory's three parallel arrays: function
// RVAs indexed contiguously from Base (the ordinal base), name-pointer RVAs,
// and the name-ordinal table that associates each name with its address
// index (the name array is sorted independently of the address array).
// Absent or unmappable directories soft-fail to an empty list.
func ParseExports(img *Image, sections *SectionTable, dir DataDirectory) ([]ExportEntry, error) {
	if dir.VirtualAddress == 0 {
		return nil, nil
	}
	offset, err := sections.RVAToOffset(dir.VirtualAddress)
	if err != nil {
		return nil, fmt.Errorf("export directory: %w", err)
	}

	raw, err := img.Bytes(offset, exportDirectorySize)
	if err != nil {
		return nil, fmt.Errorf("export directory: %w", err)
	}
	ed := ExportDirectory{
		Characteristics:       le32(raw[0:]),
		TimeDateStamp:         le32(raw[4:]),
		MajorVersion:          le16(raw[8:]),
		MinorVersion:          le16(raw[10:]),
		Name:                  le32(raw[12:]),
		Base:                  le32(raw[16:]),
		NumberOfFunctions:     le32(raw[20:]),
		NumberOfNames:         le32(raw[24:]),
		AddressOfFunctions:    le32(raw[28:]),
		AddressOfNames:        le32(raw[32:]),
		AddressOfNameOrdinals: le32(raw[36:]),
	}

	if ed.NumberOfFunctions == 0 {
		return nil, nil
	}
	if ed.NumberOfFunctions > maxExports || ed.NumberOfNames > maxExports {
		return nil, fmt.Errorf("export directory: implausible counts (%d functions, %d names)",
			ed.NumberOfFunctions, ed.NumberOfNames)
	}

	funcOffset, err := sections.RVAToOffset(ed.AddressOfFunctions)
	if err != nil {
		return nil, fmt.Errorf("export address table: %w", err)
	}
	addresses := make([]uint32, 0, ed.NumberOfFunctions)
	for i := uint32(0); i < ed.NumberOfFunctions; i++ {
		rva, err := img.U32(funcOffset + i*4)
		if err != nil {
			break // truncated address table
		}
		addresses = append(addresses, rva)
	}

	// Associate names back to address indexes via the name-ordinal table.
	names := make(map[uint16]string)
	if ed.NumberOfNames > 0 {
		nameOffset, nameErr := sections.RVAToOffset(ed.AddressOfNames)
		ordOffset, ordErr := sections.RVAToOffset(ed.AddressOfNameOrdinals)
		if nameErr == nil && ordErr == nil {
			for i := uint32(0); i < ed.NumberOfNames; i++ {
				nameRVA, err := img.U32(nameOffset + i*4)
				if err != nil {
					break
				}
				ordIndex, err := img.U16(ordOffset + i*2)
				if err != nil {
					break
				}
				strOffset, err := sections.RVAToOffset(nameRVA)
				if err != nil {
					continue
				}
				name, err := img.CString(strOffset, 256)
				if err != nil {
					continue
				}
				names[ordIndex] = name
			}
		}
	}

	var exports []ExportEntry
	for i, rva := range addresses {
		if rva == 0 {
			continue // unused ordinal slot
		}
		exports = append(exports, ExportEntry{
			Ordinal: uint16(ed.Base + uint32(i)),
			RVA:     rva,
			Name:    names[uint16(i)],
		})
	}
	return exports, nil
}
