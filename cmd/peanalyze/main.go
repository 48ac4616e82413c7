// Package main provides the heavymetal PE analysis CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/sp00nznet/heavymetal/internal/cli"
	"github.com/sp00nznet/heavymetal/internal/pe"
)

var (
	verbose = flag.Bool("v", false, "verbose mode: show all imported/exported symbols")
	all     = flag.Bool("all", false, "treat the argument as a directory and analyze every PE inside")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	if *all {
		err = analyzeDirectory(flag.Arg(0))
	} else {
		err = analyzeOne(flag.Arg(0))
	}

	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "\nerror: %v\n\n", err)
		os.Exit(1)
	}
}

func analyzeOne(path string) error {
	report, err := pe.AnalyzeFile(path)
	if err != nil {
		return err
	}

	reporter := cli.NewReporter(report)
	reporter.SetVerbose(*verbose)
	reporter.Print()
	return nil
}

// analyzeDirectory analyzes every *.exe and *.dll under dir. Files are
// parsed in parallel but reports print in path order, and one broken
// binary never stops the rest of the batch.
func analyzeDirectory(dir string) error {
	var paths []string
	for _, pattern := range []string{"**/*.exe", "**/*.dll"} {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("globbing %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PE files found under %s", dir)
	}
	sort.Strings(paths)

	reports := make([]*pe.Report, len(paths))
	failures := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			report, err := pe.AnalyzeFile(path)
			if err != nil {
				failures[i] = err
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	red := color.New(color.FgRed, color.Bold)
	failed := 0
	for i := range paths {
		if failures[i] != nil {
			_, _ = red.Fprintf(os.Stderr, "skipped: %v\n", failures[i])
			failed++
			continue
		}
		reporter := cli.NewReporter(reports[i])
		reporter.SetVerbose(*verbose)
		reporter.Print()
	}

	fmt.Printf("\nanalyzed %d of %d files\n", len(paths)-failed, len(paths))
	return nil
}

func printUsage() {
	fmt.Println("Usage: peanalyze [options] <file.exe>")
	fmt.Println("       peanalyze -all [options] <directory>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}
