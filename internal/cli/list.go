package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/pipeline"
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the program units found in the sources",
	Long: `List parses the sources and prints every module, submodule and
program with its location and symbol counts, without writing any
output files.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	kind, name, location string
	symbols              int
}

func runList(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}

	result, _, err := pipeline.New(root, cfg).Parse(cmd.Context())
	if err != nil {
		return err
	}

	var rows []listRow
	for _, mod := range result.Modules {
		rows = append(rows, listRow{
			kind:     "module",
			name:     mod.Name,
			location: formatLocation(mod.Location),
			symbols:  len(mod.Variables) + len(mod.Procedures) + len(mod.Types) + len(mod.Interfaces),
		})
	}
	for _, sub := range result.Submodules {
		rows = append(rows, listRow{
			kind:     "submodule",
			name:     sub.Name,
			location: formatLocation(sub.Location),
			symbols:  len(sub.Variables) + len(sub.Procedures) + len(sub.Types) + len(sub.Interfaces),
		})
	}
	for _, prog := range result.Programs {
		rows = append(rows, listRow{
			kind:     "program",
			name:     prog.Name,
			location: formatLocation(prog.Location),
			symbols:  len(prog.Procedures),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].kind != rows[j].kind {
			return rows[i].kind < rows[j].kind
		}
		return rows[i].name < rows[j].name
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tLOCATION\tSYMBOLS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.kind, r.name, r.location, r.symbols)
	}
	return w.Flush()
}

func formatLocation(loc *model.SourceLocation) string {
	if loc == nil {
		return "-"
	}
	return fmt.Sprintf("%s:%d", loc.Path, loc.Line)
}
