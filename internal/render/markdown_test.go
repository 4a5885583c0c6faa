package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// Test Plan:
// - Doc blocks split at "## Title" markers: preamble up top, sections
//   after the symbol tables
// - Anchors are stable slugs derived from kind and qualified name
// - Module pages carry variables, types, procedures and interfaces
// - Program pages carry dependencies and fenced source
// - Pages produces one file name per unit
// - Writer writes atomically and leaves no temp litter behind

func TestSplitDocSections(t *testing.T) {
	t.Parallel()

	preamble, sections := splitDocSections("Summary line.\n\n## Notes\nSome notes.")
	assert.Equal(t, "Summary line.", preamble)
	assert.Equal(t, "## Notes\nSome notes.", sections)

	preamble, sections = splitDocSections("No markers here.")
	assert.Equal(t, "No markers here.", preamble)
	assert.Empty(t, sections)

	preamble, sections = splitDocSections("")
	assert.Empty(t, preamble)
	assert.Empty(t, sections)
}

func TestAnchor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "f-type-geometry-vector_type", Anchor("type", "geometry.vector_type"))
	assert.Equal(t, "f-module-mymod", Anchor("module", "MyMod"))
}

func TestModulePage(t *testing.T) {
	t.Parallel()

	mod := model.Module{
		Name: "geometry",
		Doc:  "Geometric primitives.\n\n## Notes\nAngles are radians.",
		Variables: []model.Variable{
			{Name: "origin", Decl: "type(vector_type)", Doc: "the origin"},
		},
		Types: []model.DerivedType{
			{
				Name: "vector_type",
				Doc:  "A 3-vector.",
				Components: []model.Component{
					{Name: "x", Decl: "real", Doc: "x component"},
				},
				BoundProcedures: []model.TypeBoundProcedure{
					{Name: "magnitude", Target: "vector_magnitude"},
				},
			},
		},
		Procedures: []model.Procedure{
			{
				Name:      "norm",
				Kind:      model.KindFunction,
				Signature: "function norm(v) -> n",
				Arguments: []model.Argument{{Name: "v", Decl: "type(vector_type), intent(in)"}},
				Result:    &model.Argument{Name: "n", Decl: "real"},
			},
		},
		Interfaces: []model.Interface{{Name: "operator_add", Doc: "Vector addition."}},
	}

	out := ModulePage(mod)

	assert.Contains(t, out, "# Module `geometry`")
	assert.Contains(t, out, `<a id="f-module-geometry"></a>`)
	assert.Contains(t, out, "Geometric primitives.")
	assert.Contains(t, out, "| `origin` | `type(vector_type)` | the origin |")
	assert.Contains(t, out, `<a id="f-type-geometry-vector_type"></a>`)
	assert.Contains(t, out, "- `magnitude` => `vector_magnitude`")
	assert.Contains(t, out, "```fortran\nfunction norm(v) -> n\n```")
	assert.Contains(t, out, "Returns: `n` (`real`)")
	assert.Contains(t, out, "### `operator_add`")

	// Section blocks land after everything else.
	notes := "## Notes\nAngles are radians."
	require.Contains(t, out, notes)
	assert.Greater(t, strings.Index(out, notes), strings.Index(out, "operator_add"))
}

func TestProgramPage(t *testing.T) {
	t.Parallel()

	prog := model.Program{
		Name:         "demo",
		Doc:          "Entry point.",
		Dependencies: []string{"constants", "output_mod"},
		Source:       "program demo\nend program demo",
	}

	out := ProgramPage(prog)
	assert.Contains(t, out, "# Program `demo`")
	assert.Contains(t, out, "- `constants`")
	assert.Contains(t, out, "```fortran\nprogram demo\nend program demo\n```")
}

func TestPages(t *testing.T) {
	t.Parallel()

	result := model.NewParseResult()
	result.Modules["Geometry"] = model.Module{Name: "Geometry"}
	result.Submodules["impl"] = model.Submodule{Name: "impl", Parent: "Geometry"}
	result.Programs["demo"] = model.Program{Name: "demo"}

	pages := Pages(result)
	require.Len(t, pages, 3)
	assert.Contains(t, pages, "module_geometry.md")
	assert.Contains(t, pages, "submodule_impl.md")
	assert.Contains(t, pages, "program_demo.md")
	assert.Contains(t, pages["submodule_impl.md"], "Parent module: `Geometry`")
}

func TestWriter(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w, err := NewWriter(dir)
	require.NoError(t, err)

	result := model.NewParseResult()
	result.Modules["m"] = model.Module{Name: "m", Doc: "docs"}

	require.NoError(t, w.WritePages(result))
	require.NoError(t, w.WriteSymbols(result))
	require.NoError(t, w.Close())

	page, err := os.ReadFile(filepath.Join(dir, "module_m.md"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "# Module `m`")

	symbols, err := os.ReadFile(filepath.Join(dir, SymbolsFile))
	require.NoError(t, err)
	assert.Contains(t, string(symbols), `"modules"`)

	_, err = os.Stat(filepath.Join(dir, ".tmp"))
	assert.True(t, os.IsNotExist(err))
}
