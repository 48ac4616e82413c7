package pe

import (
	"errors"
	"testing"
)

func TestAnalyzeMinimalImage(t *testing.T) {
	// Round trip: a minimal 32-bit PE with one .text section and a single
	// KERNEL32.DLL!ExitProcess import, no exports, no resources.
	fixture := newTestPE32().withKernel32Import()

	report, err := NewAnalyzer(fixture.image()).Analyze()
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.FileHeader.Machine != IMAGE_FILE_MACHINE_I386 {
		t.Errorf("Machine = 0x%X, want 0x%X", report.FileHeader.Machine, IMAGE_FILE_MACHINE_I386)
	}
	if report.EntryPointVA() != 0x401000 {
		t.Errorf("EntryPointVA() = 0x%X, want 0x401000", report.EntryPointVA())
	}

	if len(report.Sections) != 1 {
		t.Fatalf("report has %d sections, want 1", len(report.Sections))
	}
	s := report.Sections[0]
	if s.Name != ".text" || s.Permissions != "R-X" {
		t.Errorf("section = %s %s, want .text R-X", s.Name, s.Permissions)
	}

	if len(report.Imports) != 1 {
		t.Fatalf("report has %d import modules, want 1", len(report.Imports))
	}
	imp := report.Imports[0]
	if imp.Module != "KERNEL32.DLL" || len(imp.Symbols) != 1 || imp.Symbols[0].Name != "ExitProcess" {
		t.Errorf("imports = %+v, want KERNEL32.DLL!ExitProcess", imp)
	}

	if len(report.Exports) != 0 {
		t.Errorf("report has %d exports, want 0", len(report.Exports))
	}
	if report.Resources != nil {
		t.Error("Resources != nil for an image without a resource directory")
	}
	if len(report.Problems) != 0 {
		t.Errorf("Problems = %v, want none", report.Problems)
	}
	if report.Checksum == nil || !report.Checksum.Valid {
		t.Errorf("Checksum = %+v, want valid (not set)", report.Checksum)
	}
}

func TestAnalyzeRecordsDirectoryProblems(t *testing.T) {
	// Unmappable import directory: the analysis completes and the failure
	// lands in Problems instead of aborting.
	fixture := newTestPE32()
	fixture.setDirectory(IMAGE_DIRECTORY_ENTRY_IMPORT, 0x9000, 40)

	report, err := NewAnalyzer(fixture.image()).Analyze()
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(report.Imports) != 0 {
		t.Errorf("report has %d import modules, want 0", len(report.Imports))
	}
	if len(report.Problems) == 0 {
		t.Error("Problems is empty, want the unmapped import directory recorded")
	}
}

func TestAnalyzeMalformedResourcesKeepSiblings(t *testing.T) {
	report, err := NewAnalyzer(newTestPE32().withCyclicResources().image()).Analyze()
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Resources == nil || len(report.Resources.Children) != 2 {
		t.Fatalf("Resources = %+v, want both root branches", report.Resources)
	}
	if len(report.Problems) == 0 {
		t.Error("Problems is empty, want the cyclic branch recorded")
	}
}

func TestAnalyzeNotAPE(t *testing.T) {
	if _, err := NewAnalyzer(NewImage([]byte("GIF89a..."))).Analyze(); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Analyze() error = %v, want ErrInvalidSignature", err)
	}
}

func TestSectionPermissions(t *testing.T) {
	tests := []struct {
		name string
		char uint32
		want string
	}{
		{
			name: "Read only",
			char: IMAGE_SCN_MEM_READ,
			want: "R--",
		},
		{
			name: "Read Write",
			char: IMAGE_SCN_MEM_READ | IMAGE_SCN_MEM_WRITE,
			want: "RW-",
		},
		{
			name: "Read Execute",
			char: IMAGE_SCN_MEM_READ | IMAGE_SCN_MEM_EXECUTE,
			want: "R-X",
		},
		{
			name: "Read Write Execute",
			char: IMAGE_SCN_MEM_READ | IMAGE_SCN_MEM_WRITE | IMAGE_SCN_MEM_EXECUTE,
			want: "RWX",
		},
		{
			name: "No permissions",
			char: 0,
			want: "---",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sectionPermissions(tt.char)
			if got != tt.want {
				t.Errorf("sectionPermissions() = %v, want %v", got, tt.want)
			}
		})
	}
}
