// Package cli implements the fortdoc command line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/config"
)

var (
	rootFlag    string
	verboseFlag bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "fortdoc",
	Short: "Generate documentation from Fortran sources",
	Long: `Fortdoc parses free-form Fortran sources, extracts modules,
submodules, programs, derived types and procedures together with their
doc comments, and renders the result as markdown pages or a JSON symbol
table.

Configuration lives in .fortdoc/config.yml under the project root and
can be overridden with FORTDOC_* environment variables.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
}

// loadProject resolves the project root and loads its validated
// configuration.
func loadProject() (string, *config.Config, error) {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return "", nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return "", nil, fmt.Errorf("loading configuration: %w", err)
	}
	if verboseFlag {
		fmt.Fprintf(os.Stderr, "Project root: %s\n", root)
	}
	return root, cfg, nil
}
