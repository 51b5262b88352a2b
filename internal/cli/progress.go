package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/project-census/internal/analyzer"
)

// CLIProgressReporter implements analyzer.ProgressReporter with a progress bar.
type CLIProgressReporter struct {
	quiet   bool
	out     io.Writer
	fileBar *progressbar.ProgressBar
	skipped []SkippedFile
}

// SkippedFile is a file left out of a run and the reason.
type SkippedFile struct {
	Path string
	Err  error
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet: quiet,
		out:   os.Stdout,
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	c.skipped = nil
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(pythonFiles, typescriptFiles, javascriptFiles int) {
	if c.quiet {
		return
	}
	log.Printf("Found %d Python, %d TypeScript and %d JavaScript files\n",
		pythonFiles, typescriptFiles, javascriptFiles)
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Analyzing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnFileSkipped(fileName string, err error) {
	c.skipped = append(c.skipped, SkippedFile{Path: fileName, Err: err})
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *analyzer.Stats) {
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	if c.quiet {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "✓ Analysis complete: %s files in %.1fs\n",
		formatNumber(stats.FilesAnalyzed), stats.DurationSeconds)
	fmt.Fprintf(c.out, "  Classes:    %s\n", formatNumber(stats.Classes))
	fmt.Fprintf(c.out, "  Functions:  %s\n", formatNumber(stats.Functions))
	fmt.Fprintf(c.out, "  Services:   %s\n", formatNumber(stats.Services))
	fmt.Fprintf(c.out, "  Components: %s\n", formatNumber(stats.Components))
	if stats.FilesCached > 0 {
		fmt.Fprintf(c.out, "  Cached:     %s\n", formatNumber(stats.FilesCached))
	}
	if stats.FilesSkipped > 0 {
		fmt.Fprintf(c.out, "  Skipped:    %s\n", formatNumber(stats.FilesSkipped))
	}
}

// Skipped returns the files skipped during the last run.
func (c *CLIProgressReporter) Skipped() []SkippedFile {
	return c.skipped
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 && n > -1000 {
		return str
	}

	sign := ""
	if str[0] == '-' {
		sign, str = "-", str[1:]
	}

	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return sign + result
}
