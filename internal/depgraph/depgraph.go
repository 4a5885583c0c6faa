// Package depgraph builds a directed dependency graph over parsed
// program units: programs depend on the modules they use, submodules on
// their parent module. Names referenced but never parsed become
// external placeholder units so queries still resolve.
package depgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// UnitKind classifies a graph vertex.
type UnitKind string

const (
	UnitModule    UnitKind = "module"
	UnitSubmodule UnitKind = "submodule"
	UnitProgram   UnitKind = "program"
	// UnitExternal marks a unit referenced by a use statement or a
	// submodule parent clause but not found in the parsed sources.
	UnitExternal UnitKind = "external"
)

// Unit is one program unit in the dependency graph. ID is the
// lower-cased name; Fortran unit names are case-insensitive.
type Unit struct {
	ID   string   `json:"id"`
	Name string   `json:"name"` // name as written at the definition site
	Kind UnitKind `json:"kind"`
}

// Graph is an immutable dependency graph over one ParseResult.
type Graph struct {
	g graph.Graph[string, *Unit]

	// Reverse indexes for O(1) queries.
	dependencies map[string][]string
	dependents   map[string][]string

	units   map[string]*Unit
	missing []string
}

// Build constructs the graph. Duplicate edges from repeated use
// statements collapse silently.
func Build(result model.ParseResult) (*Graph, error) {
	dg := &Graph{
		g:            graph.New(func(u *Unit) string { return u.ID }, graph.Directed()),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
		units:        make(map[string]*Unit),
	}

	for name := range result.Modules {
		if err := dg.addUnit(name, UnitModule); err != nil {
			return nil, err
		}
	}
	for name := range result.Submodules {
		if err := dg.addUnit(name, UnitSubmodule); err != nil {
			return nil, err
		}
	}
	for name := range result.Programs {
		if err := dg.addUnit(name, UnitProgram); err != nil {
			return nil, err
		}
	}

	for name, sub := range result.Submodules {
		if sub.Parent == "" {
			continue
		}
		if err := dg.addEdge(name, sub.Parent); err != nil {
			return nil, err
		}
	}
	for name, prog := range result.Programs {
		for _, dep := range prog.Dependencies {
			if err := dg.addEdge(name, dep); err != nil {
				return nil, err
			}
		}
	}

	for id, u := range dg.units {
		if u.Kind == UnitExternal {
			dg.missing = append(dg.missing, id)
		}
	}
	sort.Strings(dg.missing)
	return dg, nil
}

// addUnit inserts a vertex, upgrading an external placeholder when the
// real definition shows up later in the iteration.
func (dg *Graph) addUnit(name string, kind UnitKind) error {
	id := strings.ToLower(name)
	if existing, ok := dg.units[id]; ok {
		if existing.Kind == UnitExternal && kind != UnitExternal {
			existing.Name = name
			existing.Kind = kind
		}
		return nil
	}

	u := &Unit{ID: id, Name: name, Kind: kind}
	if err := dg.g.AddVertex(u); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("adding unit %s: %w", name, err)
	}
	dg.units[id] = u
	return nil
}

func (dg *Graph) addEdge(from, to string) error {
	if err := dg.addUnit(to, UnitExternal); err != nil {
		return err
	}

	fromID := strings.ToLower(from)
	toID := strings.ToLower(to)
	err := dg.g.AddEdge(fromID, toID)
	if err != nil {
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil
		}
		return fmt.Errorf("adding edge %s -> %s: %w", from, to, err)
	}

	dg.dependencies[fromID] = append(dg.dependencies[fromID], toID)
	dg.dependents[toID] = append(dg.dependents[toID], fromID)
	return nil
}

// Units returns every vertex, external placeholders included, ordered
// by ID.
func (dg *Graph) Units() []Unit {
	out := make([]Unit, 0, len(dg.units))
	for _, u := range dg.units {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup resolves a unit by name, ignoring case.
func (dg *Graph) Lookup(name string) (Unit, bool) {
	u, ok := dg.units[strings.ToLower(name)]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

// DependenciesOf lists the units the named unit depends on, sorted.
func (dg *Graph) DependenciesOf(name string) []Unit {
	return dg.resolve(dg.dependencies[strings.ToLower(name)])
}

// DependentsOf lists the units depending on the named unit, sorted.
func (dg *Graph) DependentsOf(name string) []Unit {
	return dg.resolve(dg.dependents[strings.ToLower(name)])
}

// Missing returns the IDs of units referenced but never defined in the
// parsed sources, sorted.
func (dg *Graph) Missing() []string {
	out := make([]string, len(dg.missing))
	copy(out, dg.missing)
	return out
}

func (dg *Graph) resolve(ids []string) []Unit {
	out := make([]Unit, 0, len(ids))
	for _, id := range ids {
		if u, ok := dg.units[id]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
