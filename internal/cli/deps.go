package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/depgraph"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/pipeline"
)

var missingFlag bool

// depsCmd represents the deps command.
var depsCmd = &cobra.Command{
	Use:   "deps [unit]",
	Short: "Show the dependency graph between program units",
	Long: `Deps parses the sources and prints the use relationships between
programs, modules and submodules. With a unit name it prints that
unit's dependencies and dependents; without one it prints the whole
graph.

Examples:
  # Print the full dependency graph
  fortdoc deps

  # Inspect one unit
  fortdoc deps solver_mod

  # List units that are used but nowhere defined
  fortdoc deps --missing
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
	depsCmd.Flags().BoolVar(&missingFlag, "missing", false, "List referenced but undefined units")
}

func runDeps(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	result, _, err := pipeline.New(root, cfg).Parse(cmd.Context())
	if err != nil {
		return err
	}

	dg, err := depgraph.Build(result)
	if err != nil {
		return fmt.Errorf("building dependency graph: %w", err)
	}

	out := cmd.OutOrStdout()

	if missingFlag {
		for _, id := range dg.Missing() {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	if len(args) == 1 {
		unit, ok := dg.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown unit %q", args[0])
		}
		fmt.Fprintf(out, "%s %s\n", unit.Kind, unit.Name)
		for _, dep := range dg.DependenciesOf(unit.ID) {
			fmt.Fprintf(out, "  uses %s (%s)\n", dep.Name, dep.Kind)
		}
		for _, dep := range dg.DependentsOf(unit.ID) {
			fmt.Fprintf(out, "  used by %s (%s)\n", dep.Name, dep.Kind)
		}
		return nil
	}

	for _, unit := range dg.Units() {
		deps := dg.DependenciesOf(unit.ID)
		if len(deps) == 0 {
			fmt.Fprintf(out, "%s (%s)\n", unit.Name, unit.Kind)
			continue
		}
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.Name
		}
		fmt.Fprintf(out, "%s (%s) -> %v\n", unit.Name, unit.Kind, names)
	}
	return nil
}
