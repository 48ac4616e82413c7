// Package pk3 inspects PK3 archives (plain ZIP files carrying game assets).
// The central-directory decoding itself comes from archive/zip; this package
// only aggregates the entry list into per-archive statistics.
package pk3

import (
	"archive/zip"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

// FileEntry is one archive member worth listing individually.
type FileEntry struct {
	Name string
	Size uint64
}

// CategoryStat aggregates the members sharing one extension or top-level
// directory.
type CategoryStat struct {
	Key   string
	Count int
	Size  uint64
}

// Summary holds everything the inspector learned from one archive.
type Summary struct {
	Path        string
	ArchiveSize int64

	Files        int
	Compressed   uint64
	Uncompressed uint64

	ByExtension []CategoryStat
	ByDirectory []CategoryStat

	// Asset classes worth listing in full: TIKI model definitions,
	// shader scripts and BSP maps.
	TikiModels []FileEntry
	Shaders    []FileEntry
	Maps       []FileEntry
}

// CompressionRatio returns the saved fraction in percent.
func (s *Summary) CompressionRatio() float64 {
	if s.Compressed == 0 || s.Uncompressed == 0 {
		return 0
	}
	return (1 - float64(s.Compressed)/float64(s.Uncompressed)) * 100
}

// Inspect opens a PK3 archive and summarizes its contents.
func Inspect(filePath string) (*Summary, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	defer func() { _ = zr.Close() }()

	summary := Summarize(&zr.Reader)
	summary.Path = filePath
	summary.ArchiveSize = stat.Size()
	return summary, nil
}

// Summarize aggregates an already opened archive directory.
func Summarize(zr *zip.Reader) *Summary {
	summary := &Summary{}
	extStats := make(map[string]*CategoryStat)
	dirStats := make(map[string]*CategoryStat)

	for _, f := range zr.File {
		summary.Compressed += f.CompressedSize64
		summary.Uncompressed += f.UncompressedSize64
		if f.FileInfo().IsDir() {
			continue
		}
		summary.Files++

		ext := strings.ToLower(path.Ext(f.Name))
		if ext == "" {
			ext = "(none)"
		}
		accumulate(extStats, ext, f.UncompressedSize64)

		topDir := "(root)"
		if i := strings.IndexByte(f.Name, '/'); i > 0 {
			topDir = f.Name[:i]
		}
		accumulate(dirStats, topDir, f.UncompressedSize64)

		entry := FileEntry{Name: f.Name, Size: f.UncompressedSize64}
		switch ext {
		case ".tik":
			summary.TikiModels = append(summary.TikiModels, entry)
		case ".shader":
			summary.Shaders = append(summary.Shaders, entry)
		case ".bsp":
			summary.Maps = append(summary.Maps, entry)
		}
	}

	summary.ByExtension = sortStats(extStats)
	summary.ByDirectory = sortStats(dirStats)
	sortEntries(summary.TikiModels)
	sortEntries(summary.Shaders)
	sortEntries(summary.Maps)
	return summary
}

func accumulate(stats map[string]*CategoryStat, key string, size uint64) {
	s, ok := stats[key]
	if !ok {
		s = &CategoryStat{Key: key}
		stats[key] = s
	}
	s.Count++
	s.Size += size
}

// sortStats orders categories by size descending, key ascending on ties for
// deterministic output.
func sortStats(stats map[string]*CategoryStat) []CategoryStat {
	out := make([]CategoryStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sortEntries(entries []FileEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
