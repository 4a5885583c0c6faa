// Package render turns a parse result into output artifacts: one
// markdown page per program unit and a machine-readable symbols.json.
// Output ordering is deterministic so reruns over unchanged sources
// produce identical bytes.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

var reDocSection = regexp.MustCompile(`^##\s+\S`)

// splitDocSections splits a doc block at the first "## Title" marker.
// The preamble renders near the top of a page; the section blocks
// (Notes, References, Examples) render after the symbol tables.
func splitDocSections(text string) (preamble, sections string) {
	if text == "" {
		return "", ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if reDocSection.MatchString(line) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n")),
				strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return strings.TrimSpace(text), ""
}

var reAnchorUnsafe = regexp.MustCompile(`[^a-z0-9_]+`)

// Anchor builds a stable link target from an object kind and its fully
// qualified name, e.g. ("type", "geometry.vector_type").
func Anchor(kind, fqName string) string {
	slug := reAnchorUnsafe.ReplaceAllString(strings.ToLower(fqName), "-")
	return "f-" + kind + "-" + strings.Trim(slug, "-")
}

type page struct {
	b strings.Builder
}

func (p *page) printf(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
}

func (p *page) heading(level int, title, anchor string) {
	p.printf("<a id=%q></a>\n\n", anchor)
	p.printf("%s %s\n\n", strings.Repeat("#", level), title)
}

func (p *page) docBlock(doc string) {
	if doc != "" {
		p.printf("%s\n\n", doc)
	}
}

// tableCell escapes the characters that would break a markdown table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func (p *page) variableTable(vars []model.Variable) {
	if len(vars) == 0 {
		return
	}
	p.printf("## Variables\n\n")
	p.printf("| Name | Declaration | Description |\n")
	p.printf("| --- | --- | --- |\n")
	for _, v := range vars {
		p.printf("| `%s` | `%s` | %s |\n", v.Name, tableCell(v.Decl), tableCell(v.Doc))
	}
	p.printf("\n")
}

func (p *page) derivedType(owner string, t model.DerivedType) {
	preamble, sections := splitDocSections(t.Doc)
	p.heading(3, "`"+t.Name+"`", Anchor("type", owner+"."+t.Name))
	p.docBlock(preamble)

	if len(t.Components) > 0 {
		p.printf("| Component | Declaration | Description |\n")
		p.printf("| --- | --- | --- |\n")
		for _, c := range t.Components {
			p.printf("| `%s` | `%s` | %s |\n", c.Name, tableCell(c.Decl), tableCell(c.Doc))
		}
		p.printf("\n")
	}

	if len(t.BoundProcedures) > 0 {
		p.printf("Bound procedures:\n\n")
		for _, bp := range t.BoundProcedures {
			entry := "`" + bp.Name + "`"
			if bp.Target != bp.Name {
				entry += " => `" + bp.Target + "`"
			}
			if bp.Doc != "" {
				entry += " - " + strings.ReplaceAll(bp.Doc, "\n", " ")
			}
			p.printf("- %s\n", entry)
		}
		p.printf("\n")
	}

	p.docBlock(sections)
}

func (p *page) procedure(owner string, proc model.Procedure) {
	preamble, sections := splitDocSections(proc.Doc)
	p.heading(3, "`"+proc.Name+"`", Anchor(string(proc.Kind), owner+"."+proc.Name))
	if proc.Signature != "" {
		p.printf("```fortran\n%s\n```\n\n", proc.Signature)
	}
	p.docBlock(preamble)

	if len(proc.Arguments) > 0 {
		p.printf("| Argument | Declaration | Description |\n")
		p.printf("| --- | --- | --- |\n")
		for _, a := range proc.Arguments {
			p.printf("| `%s` | `%s` | %s |\n", a.Name, tableCell(a.Decl), tableCell(a.Doc))
		}
		p.printf("\n")
	}

	if proc.Result != nil {
		p.printf("Returns: `%s`", proc.Result.Name)
		if proc.Result.Decl != "" {
			p.printf(" (`%s`)", proc.Result.Decl)
		}
		if proc.Result.Doc != "" {
			p.printf(" - %s", strings.ReplaceAll(proc.Result.Doc, "\n", " "))
		}
		p.printf("\n\n")
	}

	p.docBlock(sections)
}

func (p *page) procedureSection(owner string, procs []model.Procedure) {
	if len(procs) == 0 {
		return
	}
	p.printf("## Procedures\n\n")
	for _, proc := range procs {
		p.procedure(owner, proc)
	}
}

func (p *page) interfaceSection(owner string, ifaces []model.Interface) {
	if len(ifaces) == 0 {
		return
	}
	p.printf("## Interfaces\n\n")
	for _, iface := range ifaces {
		p.heading(3, "`"+iface.Name+"`", Anchor("interface", owner+"."+iface.Name))
		p.docBlock(iface.Doc)
	}
}

// ModulePage renders one module as a standalone markdown document.
func ModulePage(mod model.Module) string {
	var p page
	preamble, sections := splitDocSections(mod.Doc)
	p.heading(1, "Module `"+mod.Name+"`", Anchor("module", mod.Name))
	p.docBlock(preamble)
	p.variableTable(mod.Variables)

	if len(mod.Types) > 0 {
		p.printf("## Types\n\n")
		for _, t := range mod.Types {
			p.derivedType(mod.Name, t)
		}
	}
	p.procedureSection(mod.Name, mod.Procedures)
	p.interfaceSection(mod.Name, mod.Interfaces)
	p.docBlock(sections)
	return p.b.String()
}

// SubmodulePage renders one submodule, linking back to its parent.
func SubmodulePage(sub model.Submodule) string {
	var p page
	preamble, sections := splitDocSections(sub.Doc)
	p.heading(1, "Submodule `"+sub.Name+"`", Anchor("submodule", sub.Name))
	if sub.Parent != "" {
		p.printf("Parent module: `%s`\n\n", sub.Parent)
	}
	p.docBlock(preamble)
	p.variableTable(sub.Variables)

	if len(sub.Types) > 0 {
		p.printf("## Types\n\n")
		for _, t := range sub.Types {
			p.derivedType(sub.Name, t)
		}
	}
	p.procedureSection(sub.Name, sub.Procedures)
	p.interfaceSection(sub.Name, sub.Interfaces)
	p.docBlock(sections)
	return p.b.String()
}

// ProgramPage renders one main program, including its use dependencies
// and its verbatim source.
func ProgramPage(prog model.Program) string {
	var p page
	preamble, sections := splitDocSections(prog.Doc)
	p.heading(1, "Program `"+prog.Name+"`", Anchor("program", prog.Name))
	p.docBlock(preamble)

	if len(prog.Dependencies) > 0 {
		p.printf("Uses:\n\n")
		for _, dep := range prog.Dependencies {
			p.printf("- `%s`\n", dep)
		}
		p.printf("\n")
	}

	p.procedureSection(prog.Name, prog.Procedures)

	if prog.Source != "" {
		p.printf("## Source\n\n")
		p.printf("```fortran\n%s\n```\n\n", prog.Source)
	}
	p.docBlock(sections)
	return p.b.String()
}

// Pages renders every unit in the result. Keys are output file names,
// generated in sorted unit order per kind.
func Pages(result model.ParseResult) map[string]string {
	out := make(map[string]string)
	for _, name := range sortedKeys(result.Modules) {
		out["module_"+strings.ToLower(name)+".md"] = ModulePage(result.Modules[name])
	}
	for _, name := range sortedKeys(result.Submodules) {
		out["submodule_"+strings.ToLower(name)+".md"] = SubmodulePage(result.Submodules[name])
	}
	for _, name := range sortedKeys(result.Programs) {
		out["program_"+strings.ToLower(name)+".md"] = ProgramPage(result.Programs[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
