// Package model defines the symbol records produced by parsing Fortran
// sources. Records are value objects: once a container is finished it is
// never mutated, so a ParseResult can be shared freely between the CLI,
// the renderer and the dependency graph.
package model

// ProcedureKind distinguishes functions from subroutines.
type ProcedureKind string

const (
	KindFunction   ProcedureKind = "function"
	KindSubroutine ProcedureKind = "subroutine"
)

// SourceLocation points at the statement that introduced a symbol.
// A nil location is legal for synthetic or merged symbols.
type SourceLocation struct {
	Path string `json:"path"`
	Line int    `json:"line"` // 1-based
}

// Argument is a procedure dummy argument, or a function result variable.
type Argument struct {
	Name     string          `json:"name"`
	Decl     string          `json:"decl,omitempty"` // e.g. "real, intent(in)"
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
}

// Procedure is a function or subroutine.
type Procedure struct {
	Name      string          `json:"name"`
	Kind      ProcedureKind   `json:"kind"`
	Signature string          `json:"signature,omitempty"` // e.g. "pure function foo(a) -> res"
	Doc       string          `json:"doc,omitempty"`
	Location  *SourceLocation `json:"location,omitempty"`
	Arguments []Argument      `json:"arguments,omitempty"` // declaration order
	// Result is the function result variable, either named via a
	// result(...) clause or implicitly the function name. Nil for
	// subroutines.
	Result *Argument `json:"result,omitempty"`
}

// Component is a derived-type member.
type Component struct {
	Name     string          `json:"name"`
	Decl     string          `json:"decl,omitempty"` // may carry dimension and default suffixes
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
}

// TypeBoundProcedure is a binding inside a derived type's contains section.
type TypeBoundProcedure struct {
	Name     string          `json:"name"`             // binding name as used in code: x%name()
	Target   string          `json:"target,omitempty"` // concrete procedure name; defaults to Name
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
}

// DerivedType is a Fortran derived-type definition.
type DerivedType struct {
	Name            string               `json:"name"`
	Doc             string               `json:"doc,omitempty"`
	Components      []Component          `json:"components,omitempty"`
	BoundProcedures []TypeBoundProcedure `json:"bound_procedures,omitempty"`
	Location        *SourceLocation      `json:"location,omitempty"`
}

// Interface is a named (possibly abstract) interface block. Anonymous
// interface blocks are not modeled.
type Interface struct {
	Name     string          `json:"name"`
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
}

// Variable is module- or submodule-level data, not a dummy argument.
type Variable struct {
	Name     string          `json:"name"`
	Decl     string          `json:"decl,omitempty"`
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
}

// Module is a parsed Fortran module.
type Module struct {
	Name       string          `json:"name"`
	Doc        string          `json:"doc,omitempty"`
	Variables  []Variable      `json:"variables,omitempty"`
	Procedures []Procedure     `json:"procedures,omitempty"`
	Types      []DerivedType   `json:"types,omitempty"`
	Interfaces []Interface     `json:"interfaces,omitempty"`
	Location   *SourceLocation `json:"location,omitempty"`
}

// Submodule is a parsed Fortran submodule. Parent names the ancestor
// module given in the submodule statement.
type Submodule struct {
	Name       string          `json:"name"`
	Parent     string          `json:"parent"`
	Doc        string          `json:"doc,omitempty"`
	Variables  []Variable      `json:"variables,omitempty"`
	Procedures []Procedure     `json:"procedures,omitempty"`
	Types      []DerivedType   `json:"types,omitempty"`
	Interfaces []Interface     `json:"interfaces,omitempty"`
	Location   *SourceLocation `json:"location,omitempty"`
}

// Program is a parsed main program unit.
type Program struct {
	Name     string          `json:"name"`
	Doc      string          `json:"doc,omitempty"`
	Location *SourceLocation `json:"location,omitempty"`
	// Dependencies lists modules named in use statements before the
	// program's contains, in first-seen order, deduplicated without
	// regard to case.
	Dependencies []string `json:"dependencies,omitempty"`
	// Procedures holds the internal procedures defined directly after
	// contains. Procedures nested inside those are not promoted.
	Procedures []Procedure `json:"procedures,omitempty"`
	// Source is the verbatim program unit, from the program statement
	// to the matching end program line inclusive.
	Source string `json:"source,omitempty"`
}

// ParseResult is the complete symbol table for one batch of files.
// Later definitions of the same unit name overwrite earlier ones.
type ParseResult struct {
	Modules    map[string]Module    `json:"modules"`
	Submodules map[string]Submodule `json:"submodules"`
	Programs   map[string]Program   `json:"programs"`
}

// NewParseResult returns an empty result with all maps allocated.
func NewParseResult() ParseResult {
	return ParseResult{
		Modules:    make(map[string]Module),
		Submodules: make(map[string]Submodule),
		Programs:   make(map[string]Program),
	}
}
