package pe

import (
	"bytes"
	"fmt"
)

// Section characteristics.
const (
	IMAGE_SCN_CNT_CODE               = 0x00000020
	IMAGE_SCN_CNT_INITIALIZED_DATA   = 0x00000040
	IMAGE_SCN_CNT_UNINITIALIZED_DATA = 0x00000080
	IMAGE_SCN_MEM_EXECUTE            = 0x20000000
	IMAGE_SCN_MEM_READ               = 0x40000000
	IMAGE_SCN_MEM_WRITE              = 0x80000000
)

const sectionRecordSize = 40

// Section is one decoded IMAGE_SECTION_HEADER record, in file order.
type Section struct {
	Name            string
	VirtualAddress  uint32
	VirtualSize     uint32
	RawOffset       uint32
	RawSize         uint32
	Characteristics uint32
}

// span is the virtual range covered by the section. Virtual size may be
// smaller than raw size for unpadded sections, so the larger of the two
// governs RVA containment.
func (s *Section) span() uint32 {
	if s.VirtualSize > s.RawSize {
		return s.VirtualSize
	}
	return s.RawSize
}

// Contains reports whether rva falls inside the section's virtual range.
func (s *Section) Contains(rva uint32) bool {
	return rva >= s.VirtualAddress && rva-s.VirtualAddress < s.span()
}

// SectionTable answers RVA containment and RVA-to-file-offset queries for
// every downstream directory parser.
type SectionTable struct {
	Sections []Section

	img *Image
}

// ParseSectionTable decodes the NumberOfSections fixed-size records that
// follow the optional header. A record outside the image truncates the
// table rather than failing: whatever was decoded is still usable.
func ParseSectionTable(img *Image, hdrs *Headers) *SectionTable {
	t := &SectionTable{img: img}
	offset := hdrs.SectionTableOffset
	for i := uint16(0); i < hdrs.FileHeader.NumberOfSections; i++ {
		raw, err := img.Bytes(offset, sectionRecordSize)
		if err != nil {
			break
		}
		t.Sections = append(t.Sections, Section{
			Name:            string(bytes.TrimRight(raw[0:8], "\x00")),
			VirtualSize:     le32(raw[8:]),
			VirtualAddress:  le32(raw[12:]),
			RawSize:         le32(raw[16:]),
			RawOffset:       le32(raw[20:]),
			Characteristics: le32(raw[36:]),
		})
		offset += sectionRecordSize
	}
	return t
}

// Truncated reports whether fewer records were decoded than the file header
// declared.
func (t *SectionTable) Truncated(hdrs *Headers) bool {
	return len(t.Sections) < int(hdrs.FileHeader.NumberOfSections)
}

// RVAToOffset translates an RVA to a file offset via a linear scan of the
// section ranges (section counts are small, typically under twenty). The
// returned offset always lies inside the image; an RVA outside every section
// or mapping past the buffer end yields ErrUnmappedRVA, which callers treat
// as "directory absent or corrupt".
func (t *SectionTable) RVAToOffset(rva uint32) (uint32, error) {
	for i := range t.Sections {
		s := &t.Sections[i]
		if !s.Contains(rva) {
			continue
		}
		offset := rva - s.VirtualAddress + s.RawOffset
		if uint64(offset) >= uint64(t.img.Len()) {
			return 0, fmt.Errorf("%w: RVA 0x%X maps past image end", ErrUnmappedRVA, rva)
		}
		return offset, nil
	}
	return 0, fmt.Errorf("%w: RVA 0x%X", ErrUnmappedRVA, rva)
}

// FindSection returns the first section containing rva, or nil.
func (t *SectionTable) FindSection(rva uint32) *Section {
	for i := range t.Sections {
		if t.Sections[i].Contains(rva) {
			return &t.Sections[i]
		}
	}
	return nil
}
