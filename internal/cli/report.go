// Package cli formats analysis results for the terminal.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sp00nznet/heavymetal/internal/pe"
)

// Reporter formats and prints one PE analysis report.
type Reporter struct {
	report  *pe.Report
	verbose bool
}

// NewReporter creates a reporter for the given analysis report.
func NewReporter(report *pe.Report) *Reporter {
	return &Reporter{report: report}
}

// SetVerbose enables verbose mode (show all imported/exported symbols).
func (r *Reporter) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// Print outputs the complete report.
func (r *Reporter) Print() {
	r.printHeader()
	r.printBasicInfo()
	r.printSections()
	r.printImports()
	r.printExports()
	r.printResources()
	r.printVersionInfo()
	r.printProblems()
}

func (r *Reporter) printHeader() {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("\n╔════════════════════════════════════════╗")
	cyan.Println("║         heavymetal PE report           ║")
	cyan.Println("╚════════════════════════════════════════╝")
}

func (r *Reporter) printBasicInfo() {
	rep := r.report
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n[Basic Info]")

	fmt.Printf("  %-20s: %s\n", "File", rep.FilePath)
	fmt.Printf("  %-20s: %s\n", "Size", formatSize(rep.FileSize))
	fmt.Printf("  %-20s: %s\n", "Machine", machineLabel(rep.FileHeader.Machine))
	fmt.Printf("  %-20s: %s\n", "Subsystem", subsystemLabel(rep.OptionalHeader.Subsystem))
	fmt.Printf("  %-20s: %s\n", "Timestamp", formatTimestamp(rep.FileHeader.TimeDateStamp))
	fmt.Printf("  %-20s: 0x%X\n", "Entry point", rep.EntryPointVA())
	fmt.Printf("  %-20s: 0x%X\n", "Image base", rep.OptionalHeader.ImageBase)
	fmt.Printf("  %-20s: %s\n", "Characteristics",
		characteristicsLabel(rep.FileHeader.Characteristics))
	fmt.Printf("  %-20s: %s\n", "DLL characteristics",
		dllCharacteristicsLabel(rep.OptionalHeader.DllCharacteristics))

	if rep.Checksum != nil {
		fmt.Printf("  %-20s: ", "Checksum")
		switch {
		case rep.Checksum.Stored == 0:
			gray := color.New(color.FgHiBlack)
			gray.Print("not set")
		case rep.Checksum.Valid:
			green := color.New(color.FgGreen)
			green.Printf("✓ valid (0x%08X)", rep.Checksum.Stored)
		default:
			red := color.New(color.FgRed, color.Bold)
			red.Printf("✗ invalid (stored 0x%08X, computed 0x%08X)",
				rep.Checksum.Stored, rep.Checksum.Computed)
		}
		fmt.Println()
	}
}

func (r *Reporter) printSections() {
	sections := r.report.Sections

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[Sections] (%d total)\n", len(sections))

	if len(sections) == 0 {
		fmt.Println("  no sections found")
		return
	}

	fmt.Println(strings.Repeat("-", 96))
	fmt.Printf("  %-10s %-12s %-12s %-12s %-6s %-9s %s\n",
		"Name", "VirtAddr", "VirtSize", "RawSize", "Perms", "Entropy", "Flags")
	fmt.Println(strings.Repeat("-", 96))

	for _, section := range sections {
		// RWX sections are the classic self-modifying/packed tell.
		permColor := color.New(color.FgWhite)
		if section.Permissions == "RWX" {
			permColor = color.New(color.FgRed, color.Bold)
		} else if strings.Contains(section.Permissions, "X") {
			permColor = color.New(color.FgYellow)
		}

		fmt.Printf("  %-10s 0x%08X   %-12s %-12s ",
			section.Name,
			section.VirtualAddress,
			formatSize(int64(section.VirtualSize)),
			formatSize(int64(section.RawSize)),
		)
		permColor.Printf("%-6s", section.Permissions)

		entropyColor := color.New(color.FgWhite)
		if section.Entropy > 7.2 {
			entropyColor = color.New(color.FgRed)
		}
		entropyColor.Printf(" %-8.2f", section.Entropy)
		fmt.Printf(" 0x%08X\n", section.Characteristics)
	}
	fmt.Println(strings.Repeat("-", 96))
}

func (r *Reporter) printImports() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[Imports] (%d modules)\n", len(r.report.Imports))

	if len(r.report.Imports) == 0 {
		fmt.Println("  no imports found")
		return
	}

	for i, imp := range r.report.Imports {
		green := color.New(color.FgGreen)
		green.Printf("  %3d. %s (%d symbols)\n", i+1, imp.Module, len(imp.Symbols))

		maxDisplay := 10
		if r.verbose {
			maxDisplay = len(imp.Symbols)
		}

		displayCount := len(imp.Symbols)
		if displayCount > maxDisplay {
			displayCount = maxDisplay
		}

		for j := 0; j < displayCount; j++ {
			sym := imp.Symbols[j]
			if sym.ByOrdinal {
				fmt.Printf("       - ordinal #%d\n", sym.Ordinal)
			} else {
				fmt.Printf("       - %s\n", sym.Name)
			}
		}

		if len(imp.Symbols) > maxDisplay {
			gray := color.New(color.FgHiBlack)
			gray.Printf("       ... (%d more)\n", len(imp.Symbols)-maxDisplay)
		}
	}
}

func (r *Reporter) printExports() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[Exports] (%d symbols)\n", len(r.report.Exports))

	if len(r.report.Exports) == 0 {
		fmt.Println("  no exports found")
		return
	}

	maxDisplay := 20
	if r.verbose {
		maxDisplay = len(r.report.Exports)
	}

	displayCount := len(r.report.Exports)
	if displayCount > maxDisplay {
		displayCount = maxDisplay
	}

	green := color.New(color.FgGreen)
	for i := 0; i < displayCount; i++ {
		exp := r.report.Exports[i]
		name := exp.Name
		if name == "" {
			name = "(unnamed)"
		}
		green.Printf("  #%-5d %-40s RVA 0x%08X\n", exp.Ordinal, name, exp.RVA)
	}

	if len(r.report.Exports) > maxDisplay {
		gray := color.New(color.FgHiBlack)
		gray.Printf("  ... (%d more)\n", len(r.report.Exports)-maxDisplay)
	}
}

func (r *Reporter) printResources() {
	yellow := color.New(color.FgYellow, color.Bold)

	root := r.report.Resources
	if root == nil {
		yellow.Println("\n[Resources] (none)")
		return
	}

	yellow.Printf("\n[Resources] (%d types)\n", len(root.Children))
	for _, child := range root.Children {
		printResourceNode(child, 1)
	}
}

func printResourceNode(node *pe.ResourceNode, depth int) {
	indent := strings.Repeat("  ", depth)

	label := node.Key.String()
	if node.TypeLabel != "" {
		label = fmt.Sprintf("%s (%s)", node.TypeLabel, label)
	}

	if node.IsLeaf {
		fmt.Printf("%s- %s: %s bytes at 0x%X\n",
			indent, label, humanize.Comma(int64(node.Size)), node.DataOffset)
		return
	}

	fmt.Printf("%s+ %s\n", indent, label)
	for _, child := range node.Children {
		printResourceNode(child, depth+1)
	}
}

func (r *Reporter) printVersionInfo() {
	if len(r.report.VersionStrings) == 0 && r.report.FixedVersion == nil {
		return
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n[Version Info]")

	if fv := r.report.FixedVersion; fv != nil {
		fmt.Printf("  %-20s: %s\n", "File version", fv.FileVersion)
		fmt.Printf("  %-20s: %s\n", "Product version", fv.ProductVersion)
	}
	for _, vs := range r.report.VersionStrings {
		fmt.Printf("  %-20s: %s\n", vs.Key, vs.Value)
	}
}

func (r *Reporter) printProblems() {
	if len(r.report.Problems) == 0 {
		return
	}

	red := color.New(color.FgRed, color.Bold)
	red.Printf("\n[Problems] (%d)\n", len(r.report.Problems))
	for _, p := range r.report.Problems {
		fmt.Printf("  ! %s\n", p)
	}
}

func formatTimestamp(ts uint32) string {
	if ts == 0 {
		return "not set"
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
