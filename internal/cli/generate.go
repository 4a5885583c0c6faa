package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/pipeline"
)

var (
	quietFlag bool
	watchFlag bool
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Parse the sources and write documentation",
	Long: `Generate walks the configured source roots, parses every Fortran
file and writes the configured outputs: markdown pages, a JSON symbol
table, or both.

Examples:
  # Generate docs for the current directory
  fortdoc generate

  # Generate without progress output
  fortdoc generate --quiet

  # Keep running and regenerate on file changes
  fortdoc generate --watch

  # Generate for another project
  fortdoc generate --root /path/to/project
`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress output")
	generateCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and regenerate")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, stopping...")
		cancel()
	}()

	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	reporter := NewCLIProgressReporter(quietFlag)
	pl := pipeline.New(root, cfg, pipeline.WithProgress(reporter))

	if _, _, err := pl.Run(ctx); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if !watchFlag {
		return nil
	}

	watcher, err := pipeline.NewWatcher(pl)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.Start(ctx)

	if !quietFlag {
		fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	}
	<-ctx.Done()
	return nil
}
