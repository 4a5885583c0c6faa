package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/pipeline"
)

// CLIProgressReporter renders pipeline progress as a progress bar.
type CLIProgressReporter struct {
	quiet   bool
	fileBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a reporter. With quiet set, only
// warnings and errors reach the terminal.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(totalFiles int) {
	if c.quiet {
		return
	}
	log.Printf("Parsing %d Fortran files\n", totalFiles)

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnFileParsed(path string) {
	if c.quiet || c.fileBar == nil {
		return
	}
	c.fileBar.Describe("Parsing " + filepath.Base(path))
	c.fileBar.Add(1)
}

func (c *CLIProgressReporter) OnComplete(stats pipeline.Stats) {
	if c.quiet {
		return
	}
	log.Printf("Parsed %d files in %s: %d modules, %d submodules, %d programs",
		stats.FilesParsed, stats.Duration.Round(time.Millisecond),
		stats.Modules, stats.Submodules, stats.Programs)
}
