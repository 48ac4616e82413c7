// Package main provides the heavymetal PK3 archive inspector.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sp00nznet/heavymetal/internal/cli"
	"github.com/sp00nznet/heavymetal/internal/pk3"
)

var (
	verbose = flag.Bool("v", false, "verbose mode: show full asset listings")
	summary = flag.Bool("summary", false, "treat the argument as a directory and summarize every PK3 inside")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	if *summary {
		err = inspectDirectory(flag.Arg(0))
	} else {
		err = inspectOne(flag.Arg(0))
	}

	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "\nerror: %v\n\n", err)
		os.Exit(1)
	}
}

func inspectOne(path string) error {
	s, err := pk3.Inspect(path)
	if err != nil {
		return err
	}

	reporter := cli.NewPK3Reporter(s)
	reporter.SetVerbose(*verbose)
	reporter.Print()
	return nil
}

func inspectDirectory(dir string) error {
	paths, err := doublestar.FilepathGlob(filepath.Join(dir, "**/*.pk3"))
	if err != nil {
		return fmt.Errorf("globbing %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PK3 archives found under %s", dir)
	}
	sort.Strings(paths)

	var files int
	var archiveBytes, contentBytes uint64
	for _, path := range paths {
		s, err := pk3.Inspect(path)
		if err != nil {
			red := color.New(color.FgRed, color.Bold)
			_, _ = red.Fprintf(os.Stderr, "skipped: %v\n", err)
			continue
		}
		fmt.Printf("  %-48s %6s entries  %12s\n",
			filepath.Base(path), humanize.Comma(int64(s.Files)), humanize.Bytes(s.Uncompressed))
		files += s.Files
		archiveBytes += uint64(s.ArchiveSize)
		contentBytes += s.Uncompressed
	}

	fmt.Printf("\n%d archives, %s entries, %s on disk, %s unpacked\n",
		len(paths), humanize.Comma(int64(files)),
		humanize.Bytes(archiveBytes), humanize.Bytes(contentBytes))
	return nil
}

func printUsage() {
	fmt.Println("Usage: pk3inspect [options] <archive.pk3>")
	fmt.Println("       pk3inspect -summary <directory>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
