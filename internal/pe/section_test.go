package pe

import (
	"errors"
	"testing"
)

func parseFixtureSections(t *testing.T, fixture *testImage) *SectionTable {
	t.Helper()
	img := fixture.image()
	hdrs, err := ParseHeaders(img)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	return ParseSectionTable(img, hdrs)
}

func TestParseSectionTable(t *testing.T) {
	table := parseFixtureSections(t, newTestPE32())

	if len(table.Sections) != 1 {
		t.Fatalf("decoded %d sections, want 1", len(table.Sections))
	}
	s := table.Sections[0]
	if s.Name != ".text" {
		t.Errorf("Name = %q, want .text", s.Name)
	}
	if s.VirtualAddress != 0x1000 || s.VirtualSize != 0x1000 {
		t.Errorf("virtual range = {0x%X, 0x%X}, want {0x1000, 0x1000}", s.VirtualAddress, s.VirtualSize)
	}
	if s.RawOffset != 0x400 || s.RawSize != 0x200 {
		t.Errorf("raw range = {0x%X, 0x%X}, want {0x400, 0x200}", s.RawOffset, s.RawSize)
	}
}

func TestRVAToOffset(t *testing.T) {
	table := parseFixtureSections(t, newTestPE32())

	tests := []struct {
		name    string
		rva     uint32
		want    uint32
		wantErr bool
	}{
		{name: "Section start", rva: 0x1000, want: 0x400},
		{name: "Inside section", rva: 0x1050, want: 0x450},
		{name: "Last raw byte", rva: 0x11FF, want: 0x5FF},
		{name: "Below first section", rva: 0x500, wantErr: true},
		{name: "Past last section", rva: 0x2000, wantErr: true},
		{name: "Zero RVA", rva: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.RVAToOffset(tt.rva)
			if tt.wantErr {
				if !errors.Is(err, ErrUnmappedRVA) {
					t.Fatalf("error = %v, want ErrUnmappedRVA", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RVAToOffset(0x%X) = 0x%X, want 0x%X", tt.rva, got, tt.want)
			}
			if int(got) >= fixtureSize {
				t.Errorf("offset 0x%X lies outside the image", got)
			}
		})
	}
}

func TestRVAToOffsetMappingPastImage(t *testing.T) {
	// Raw pointer beyond the file: containment matches but the mapped
	// offset would fall outside the buffer, which must not be returned.
	fixture := newTestPE32()
	fixture.put32(0x18C, 0x10000) // PointerToRawData

	table := parseFixtureSections(t, fixture)
	if _, err := table.RVAToOffset(0x1000); !errors.Is(err, ErrUnmappedRVA) {
		t.Errorf("error = %v, want ErrUnmappedRVA", err)
	}
}

func TestSectionTableTruncated(t *testing.T) {
	fixture := newTestPE32()
	fixture.put16(0x86, 40) // claims 40 sections, table runs off the image

	img := fixture.image()
	hdrs, err := ParseHeaders(img)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	table := ParseSectionTable(img, hdrs)
	if !table.Truncated(hdrs) {
		t.Error("Truncated() = false for an over-declared section count")
	}
	// The records that fit are still decoded.
	if len(table.Sections) == 0 {
		t.Error("no sections decoded from truncated table")
	}
}

func TestFindSection(t *testing.T) {
	table := parseFixtureSections(t, newTestPE32())

	if s := table.FindSection(0x1100); s == nil || s.Name != ".text" {
		t.Errorf("FindSection(0x1100) = %v, want .text", s)
	}
	if s := table.FindSection(0x5000); s != nil {
		t.Errorf("FindSection(0x5000) = %v, want nil", s)
	}
}
