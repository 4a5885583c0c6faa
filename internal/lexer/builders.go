package lexer

import (
	"strings"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// Builders hold the mutable working state for the containers currently
// open in a file. Each builder is sealed into an immutable model record
// exactly once, at the statement that closes its scope; a builder whose
// end statement never arrives is simply dropped.

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeSubmodule
	scopeProgram
)

// scopeBuilder is the in-progress record for a module, submodule or
// program unit.
type scopeBuilder struct {
	kind   scopeKind
	name   string
	parent string // submodules only
	loc    *model.SourceLocation

	// Header documentation. docLines starts with anything buffered
	// before the opening statement; while the header phase is open and
	// uninterrupted, further doc lines append directly.
	docLines      []string
	headerPhase   bool
	headerDocOpen bool

	afterContains bool
	startLine     int // 1-based line of the opening statement

	variables  []model.Variable
	varSeen    map[string]bool // lower-cased names already recorded
	procedures []model.Procedure
	types      []model.DerivedType
	interfaces []model.Interface

	deps    []string
	depSeen map[string]bool
}

func newScopeBuilder(kind scopeKind, name, parent string, loc *model.SourceLocation, predoc []string) *scopeBuilder {
	return &scopeBuilder{
		kind:          kind,
		name:          name,
		parent:        parent,
		loc:           loc,
		docLines:      predoc,
		headerPhase:   true,
		headerDocOpen: true,
		startLine:     loc.Line,
		varSeen:       make(map[string]bool),
		depSeen:       make(map[string]bool),
	}
}

func (b *scopeBuilder) addDocLine(text string) {
	b.docLines = append(b.docLines, text)
}

func (b *scopeBuilder) addDependency(name string) {
	key := strings.ToLower(name)
	if b.depSeen[key] {
		return
	}
	b.depSeen[key] = true
	b.deps = append(b.deps, name)
}

// addVariable records container-level data, ignoring names already seen
// in this scope regardless of case. This guards against the same name
// reappearing across split declaration statements.
func (b *scopeBuilder) addVariable(v model.Variable) {
	key := strings.ToLower(v.Name)
	if b.varSeen[key] {
		return
	}
	b.varSeen[key] = true
	b.variables = append(b.variables, v)
}

func (b *scopeBuilder) doc() string {
	return strings.TrimSpace(strings.Join(b.docLines, "\n"))
}

func (b *scopeBuilder) sealModule() model.Module {
	return model.Module{
		Name:       b.name,
		Doc:        b.doc(),
		Variables:  b.variables,
		Procedures: b.procedures,
		Types:      b.types,
		Interfaces: b.interfaces,
		Location:   b.loc,
	}
}

func (b *scopeBuilder) sealSubmodule() model.Submodule {
	return model.Submodule{
		Name:       b.name,
		Parent:     b.parent,
		Doc:        b.doc(),
		Variables:  b.variables,
		Procedures: b.procedures,
		Types:      b.types,
		Interfaces: b.interfaces,
		Location:   b.loc,
	}
}

func (b *scopeBuilder) sealProgram(source string) model.Program {
	return model.Program{
		Name:         b.name,
		Doc:          b.doc(),
		Location:     b.loc,
		Dependencies: b.deps,
		Procedures:   b.procedures,
		Source:       source,
	}
}

// procBuilder is the in-progress record for an open procedure body.
// parent links to the enclosing procedure for nested internal
// procedures; only a procedure whose parent is nil is promoted into its
// container when it closes.
type procBuilder struct {
	parent *procBuilder

	kind model.ProcedureKind
	name string
	loc  *model.SourceLocation

	signature string
	preDoc    string   // doc captured before the signature
	docLines  []string // doc captured after the signature

	argOrder  []string
	known     map[string]bool // argument and result names eligible for decl/doc capture
	argDecls  map[string]string
	argDocs   map[string]string
	resultVar string // empty for subroutines without an implicit result

	// Post-signature doc lines are ambiguous until the next non-doc,
	// non-blank statement tells arguments apart from procedure prose.
	postSigBuf []string
	inPostSig  bool
}

func newProcBuilder(parent *procBuilder, sig procSignature, loc *model.SourceLocation, preDoc string) *procBuilder {
	b := &procBuilder{
		parent:    parent,
		kind:      sig.kind,
		name:      sig.name,
		loc:       loc,
		signature: normalizeSignature(sig.raw),
		preDoc:    preDoc,
		argOrder:  sig.args,
		known:     make(map[string]bool, len(sig.args)+1),
		argDecls:  make(map[string]string),
		argDocs:   make(map[string]string),
		// Doc already present before the signature means any doc lines
		// after it belong to arguments, not to more procedure prose.
		inPostSig: preDoc == "",
	}
	for _, a := range sig.args {
		b.known[a] = true
	}
	if sig.kind == model.KindFunction {
		b.resultVar = sig.resultVar
		if b.resultVar == "" {
			b.resultVar = sig.name
		}
		b.known[b.resultVar] = true
	}
	return b
}

// recordDecl attaches declaration text to a known argument or result
// name, merging a per-name dimension spec. First declaration wins.
func (b *procBuilder) recordDecl(name, decl, dims string) {
	if !b.known[name] {
		return
	}
	if _, exists := b.argDecls[name]; exists {
		return
	}
	if merged := mergeDims(decl, dims); merged != "" {
		b.argDecls[name] = merged
	}
}

func (b *procBuilder) recordDoc(name, doc string) {
	if !b.known[name] || doc == "" {
		return
	}
	if prev := b.argDocs[name]; prev != "" {
		b.argDocs[name] = prev + "\n" + doc
	} else {
		b.argDocs[name] = doc
	}
}

func (b *procBuilder) seal() model.Procedure {
	args := make([]model.Argument, 0, len(b.argOrder))
	for _, name := range b.argOrder {
		args = append(args, model.Argument{
			Name: name,
			Decl: b.argDecls[name],
			Doc:  b.argDocs[name],
		})
	}

	doc := b.preDoc
	if post := strings.TrimSpace(strings.Join(b.docLines, "\n")); post != "" {
		if doc != "" {
			doc += "\n" + post
		} else {
			doc = post
		}
	}

	p := model.Procedure{
		Name:      b.name,
		Kind:      b.kind,
		Signature: b.signature,
		Doc:       doc,
		Location:  b.loc,
		Arguments: args,
	}
	if b.kind == model.KindFunction {
		p.Result = &model.Argument{
			Name: b.resultVar,
			Decl: b.argDecls[b.resultVar],
			Doc:  b.argDocs[b.resultVar],
		}
	}
	return p
}

// typeBuilder is the in-progress record for an open derived-type body.
type typeBuilder struct {
	name string
	doc  string
	loc  *model.SourceLocation

	inContains bool
	components []model.Component
	bindings   []model.TypeBoundProcedure
}

func (b *typeBuilder) seal() model.DerivedType {
	return model.DerivedType{
		Name:            b.name,
		Doc:             b.doc,
		Components:      b.components,
		BoundProcedures: b.bindings,
		Location:        b.loc,
	}
}
