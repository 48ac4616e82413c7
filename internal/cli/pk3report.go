package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sp00nznet/heavymetal/internal/pk3"
)

// PK3Reporter formats and prints one archive summary.
type PK3Reporter struct {
	summary *pk3.Summary
	verbose bool
}

// NewPK3Reporter creates a reporter for the given archive summary.
func NewPK3Reporter(summary *pk3.Summary) *PK3Reporter {
	return &PK3Reporter{summary: summary}
}

// SetVerbose enables verbose mode (show full asset listings).
func (r *PK3Reporter) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// Print outputs the complete summary.
func (r *PK3Reporter) Print() {
	r.printHeader()
	r.printTotals()
	r.printCategories("By Extension", r.summary.ByExtension)
	r.printCategories("By Directory", r.summary.ByDirectory)
	r.printListing("TIKI Models", r.summary.TikiModels)
	r.printListing("Shader Scripts", r.summary.Shaders)
	r.printListing("BSP Maps", r.summary.Maps)
}

func (r *PK3Reporter) printHeader() {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Println("\n╔════════════════════════════════════════╗")
	cyan.Println("║        heavymetal PK3 report           ║")
	cyan.Println("╚════════════════════════════════════════╝")
}

func (r *PK3Reporter) printTotals() {
	s := r.summary
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Println("\n[Archive]")

	fmt.Printf("  %-20s: %s\n", "File", s.Path)
	fmt.Printf("  %-20s: %s\n", "Archive size", formatSize(s.ArchiveSize))
	fmt.Printf("  %-20s: %s\n", "Entries", humanize.Comma(int64(s.Files)))
	fmt.Printf("  %-20s: %s\n", "Uncompressed", formatSize(int64(s.Uncompressed)))
	fmt.Printf("  %-20s: %s (%.1f%% saved)\n", "Compressed",
		formatSize(int64(s.Compressed)), s.CompressionRatio())
}

func (r *PK3Reporter) printCategories(title string, stats []pk3.CategoryStat) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[%s] (%d categories)\n", title, len(stats))

	if len(stats) == 0 {
		fmt.Println("  nothing to report")
		return
	}

	fmt.Println(strings.Repeat("-", 48))
	for _, cs := range stats {
		fmt.Printf("  %-16s %6d files  %12s\n",
			cs.Key, cs.Count, formatSize(int64(cs.Size)))
	}
	fmt.Println(strings.Repeat("-", 48))
}

func (r *PK3Reporter) printListing(title string, entries []pk3.FileEntry) {
	if len(entries) == 0 {
		return
	}

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n[%s] (%d)\n", title, len(entries))

	maxDisplay := 15
	if r.verbose {
		maxDisplay = len(entries)
	}

	displayCount := len(entries)
	if displayCount > maxDisplay {
		displayCount = maxDisplay
	}

	green := color.New(color.FgGreen)
	for i := 0; i < displayCount; i++ {
		green.Printf("  %-56s %10s\n", entries[i].Name, formatSize(int64(entries[i].Size)))
	}

	if len(entries) > maxDisplay {
		gray := color.New(color.FgHiBlack)
		gray.Printf("  ... (%d more)\n", len(entries)-maxDisplay)
	}
}
