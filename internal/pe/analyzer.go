package pe

import (
	"fmt"
	"os"
)

// SectionInfo pairs a decoded section with the analyses derived from it.
type SectionInfo struct {
	Section
	Permissions string
	Entropy     float64
}

// Report aggregates everything one analysis run learned from a binary.
// It is immutable once produced and owned by the caller; non-fatal parse
// failures are collected in Problems instead of aborting the run.
type Report struct {
	FilePath       string
	FileSize       int64
	FileHeader     FileHeader
	OptionalHeader OptionalHeader
	Sections       []SectionInfo
	Imports        []ImportEntry
	Exports        []ExportEntry
	Resources      *ResourceNode
	VersionStrings []VersionString
	FixedVersion   *FixedVersion
	Checksum       *ChecksumInfo
	Problems       []string
}

// EntryPointVA is the entry point as a virtual address (image base + RVA).
func (r *Report) EntryPointVA() uint64 {
	return r.OptionalHeader.ImageBase + uint64(r.OptionalHeader.AddressOfEntryPoint)
}

// Analyzer sequences the header, section, import, export, resource and
// version parsers over one image.
type Analyzer struct {
	img *Image
}

// NewAnalyzer creates an analyzer for the given image.
func NewAnalyzer(img *Image) *Analyzer {
	return &Analyzer{img: img}
}

// Analyze runs the full structural analysis. Only failures decoding the two
// mandatory headers are fatal, since without them nothing else can be
// located; every directory-level failure is recovered locally and recorded
// in Report.Problems so a partially corrupt binary still yields whatever
// can be learned from it.
func (a *Analyzer) Analyze() (*Report, error) {
	hdrs, err := ParseHeaders(a.img)
	if err != nil {
		return nil, err
	}

	report := &Report{
		FileSize:       int64(a.img.Len()),
		FileHeader:     hdrs.FileHeader,
		OptionalHeader: hdrs.OptionalHeader,
	}
	note := func(format string, args ...interface{}) {
		report.Problems = append(report.Problems, fmt.Sprintf(format, args...))
	}

	sections := ParseSectionTable(a.img, hdrs)
	if sections.Truncated(hdrs) {
		note("section table truncated: %d of %d records decoded",
			len(sections.Sections), hdrs.FileHeader.NumberOfSections)
	}
	for _, s := range sections.Sections {
		report.Sections = append(report.Sections, SectionInfo{
			Section:     s,
			Permissions: sectionPermissions(s.Characteristics),
			Entropy:     SectionEntropy(a.img, s),
		})
	}

	opt := &hdrs.OptionalHeader

	imports, err := ParseImports(a.img, sections, opt.Directory(IMAGE_DIRECTORY_ENTRY_IMPORT), opt.Is64Bit)
	if err != nil {
		note("imports: %v", err)
	}
	report.Imports = imports

	exports, err := ParseExports(a.img, sections, opt.Directory(IMAGE_DIRECTORY_ENTRY_EXPORT))
	if err != nil {
		note("exports: %v", err)
	}
	report.Exports = exports

	resources, problems := ParseResourceTree(a.img, sections, opt.Directory(IMAGE_DIRECTORY_ENTRY_RESOURCE))
	for _, p := range problems {
		note("resources: %v", p)
	}
	report.Resources = resources

	if data, ok := FindResourceData(a.img, resources, RT_VERSION); ok {
		report.VersionStrings, report.FixedVersion = DecodeVersionInfo(data)
	}

	report.Checksum = VerifyChecksum(a.img, hdrs)

	return report, nil
}

// AnalyzeFile loads a binary from disk and analyzes it.
func AnalyzeFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	report, err := NewAnalyzer(NewImage(data)).Analyze()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	report.FilePath = path
	return report, nil
}

func sectionPermissions(c uint32) string {
	perms := [3]rune{'-', '-', '-'}

	if c&IMAGE_SCN_MEM_READ != 0 {
		perms[0] = 'R'
	}
	if c&IMAGE_SCN_MEM_WRITE != 0 {
		perms[1] = 'W'
	}
	if c&IMAGE_SCN_MEM_EXECUTE != 0 {
		perms[2] = 'X'
	}

	return string(perms[:])
}
