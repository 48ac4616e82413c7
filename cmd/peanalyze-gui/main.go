// Package main provides the heavymetal GUI viewer.
package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/sp00nznet/heavymetal/internal/pe"
)

func main() {
	myApp := app.New()
	myWindow := myApp.NewWindow("heavymetal - PE structure viewer")
	myWindow.Resize(fyne.NewSize(900, 700))

	filePathEntry := widget.NewEntry()
	filePathEntry.SetPlaceHolder("Select a PE file...")

	analysisOutput := widget.NewMultiLineEntry()
	analysisOutput.SetPlaceHolder("Analysis results will appear here...")
	analysisOutput.Disable()

	statusLabel := widget.NewLabel("Ready")

	fileButton := widget.NewButton("Browse", func() {
		dialog.ShowFileOpen(func(file fyne.URIReadCloser, err error) {
			if err != nil || file == nil {
				return
			}
			defer func() { _ = file.Close() }()
			filePathEntry.SetText(file.URI().Path())
		}, myWindow)
	})

	analyzeButton := widget.NewButton("Analyze", func() {
		if filePathEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("select a PE file first"), myWindow)
			return
		}

		statusLabel.SetText("Analyzing...")
		go func() {
			result, err := analyzePEFile(filePathEntry.Text)
			if err != nil {
				dialog.ShowError(err, myWindow)
				statusLabel.SetText("Analysis failed")
				return
			}
			analysisOutput.SetText(result)
			statusLabel.SetText("Done")
		}()
	})

	fileBox := container.NewBorder(nil, nil, nil, fileButton, filePathEntry)
	analysisBox := container.NewVScroll(analysisOutput)

	mainContent := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("PE file:"),
			fileBox,
			widget.NewSeparator(),
			analyzeButton,
		),
		container.NewVBox(
			widget.NewSeparator(),
			statusLabel,
		),
		nil,
		nil,
		analysisBox,
	)

	myWindow.SetContent(mainContent)
	myWindow.ShowAndRun()
}

func analyzePEFile(path string) (string, error) {
	report, err := pe.AnalyzeFile(path)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("File: %s\n", report.FilePath))
	output.WriteString(fmt.Sprintf("Size: %d bytes\n", report.FileSize))
	output.WriteString(fmt.Sprintf("Entry point: 0x%X\n", report.EntryPointVA()))
	output.WriteString(fmt.Sprintf("Image base: 0x%X\n", report.OptionalHeader.ImageBase))

	if report.Checksum != nil {
		if report.Checksum.Valid {
			output.WriteString(fmt.Sprintf("Checksum: ✓ valid (0x%08X)\n", report.Checksum.Stored))
		} else {
			output.WriteString(fmt.Sprintf("Checksum: ✗ invalid (stored 0x%08X, computed 0x%08X)\n",
				report.Checksum.Stored, report.Checksum.Computed))
		}
	}

	output.WriteString(fmt.Sprintf("\nSections (%d):\n", len(report.Sections)))
	for _, section := range report.Sections {
		output.WriteString(fmt.Sprintf("  %s: perms=%s, entropy=%.2f\n",
			section.Name, section.Permissions, section.Entropy))
	}

	output.WriteString(fmt.Sprintf("\nImports (%d modules):\n", len(report.Imports)))
	for i, imp := range report.Imports {
		if i >= 10 {
			output.WriteString(fmt.Sprintf("  ... (%d more modules)\n", len(report.Imports)-10))
			break
		}
		output.WriteString(fmt.Sprintf("  %s (%d symbols)\n", imp.Module, len(imp.Symbols)))
	}

	output.WriteString(fmt.Sprintf("\nExports (%d symbols)\n", len(report.Exports)))

	if fv := report.FixedVersion; fv != nil {
		output.WriteString(fmt.Sprintf("\nFile version: %s\n", fv.FileVersion))
		output.WriteString(fmt.Sprintf("Product version: %s\n", fv.ProductVersion))
	}
	for _, vs := range report.VersionStrings {
		output.WriteString(fmt.Sprintf("%s: %s\n", vs.Key, vs.Value))
	}

	if len(report.Problems) > 0 {
		output.WriteString(fmt.Sprintf("\nProblems (%d):\n", len(report.Problems)))
		for _, p := range report.Problems {
			output.WriteString(fmt.Sprintf("  ! %s\n", p))
		}
	}

	return output.String(), nil
}
