package lexer

import (
	"log"
	"strings"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

func warnf(format string, args ...any) {
	log.Printf("Warning: "+format, args...)
}

// fileParser walks one file's lines front to back, maintaining the open
// scope, at most one open derived-type body, a stack of open procedure
// bodies, and the pending-doc buffer.
type fileParser struct {
	path    string
	lines   []string
	markers []string
	out     *model.ParseResult

	scope   *scopeBuilder
	typ     *typeBuilder
	proc    *procBuilder // innermost open procedure
	pending []string
}

func (p *fileParser) location(line int) *model.SourceLocation {
	return &model.SourceLocation{Path: p.path, Line: line}
}

// flushPending returns the assembled pending doc block and clears the
// buffer.
func (p *fileParser) flushPending() string {
	if len(p.pending) == 0 {
		return ""
	}
	doc := strings.TrimSpace(strings.Join(p.pending, "\n"))
	p.pending = nil
	return doc
}

func (p *fileParser) run() {
	for i, raw := range p.lines {
		p.step(i+1, raw)
	}
	// End of input with an unterminated scope: the unfinished record is
	// dropped, never reported as an error.
	if p.scope != nil {
		warnf("%s: %s %q is never closed; dropping it", p.path, p.scope.kindName(), p.scope.name)
	}
}

func (k scopeKind) String() string {
	switch k {
	case scopeModule:
		return "module"
	case scopeSubmodule:
		return "submodule"
	default:
		return "program"
	}
}

func (b *scopeBuilder) kindName() string { return b.kind.String() }

func (p *fileParser) step(lineno int, raw string) {
	// Doc markers live inside comments, so the original line is tested
	// before any comment stripping.
	if text, ok := docLine(raw, p.markers); ok {
		p.handleDocLine(text)
		return
	}

	if strings.TrimSpace(raw) == "" {
		p.handleBlankLine()
		return
	}

	// The first non-doc, non-blank line after a procedure signature
	// decides whether the buffered doc lines describe an argument or
	// the procedure itself. This happens exactly once per signature.
	if p.proc != nil && p.proc.inPostSig {
		p.resolvePostSignatureDoc(raw)
	}

	// An end statement for the open top-level scope wins over anything
	// still open inside it; unfinished nested bodies are abandoned.
	if p.scope != nil && p.scopeEndMatches(raw) {
		p.closeScope(lineno)
		return
	}

	if p.typ != nil {
		p.stepInsideType(lineno, raw)
		return
	}

	if p.proc != nil && reEndProc.MatchString(raw) {
		p.closeProc()
		return
	}

	if p.scope == nil {
		p.stepOutsideScope(lineno, raw)
		return
	}

	p.stepInsideScope(lineno, raw)
}

func (p *fileParser) handleDocLine(text string) {
	switch {
	case p.proc != nil && p.proc.inPostSig:
		p.proc.postSigBuf = append(p.proc.postSigBuf, text)
	case p.typ != nil:
		p.pending = append(p.pending, text)
	case p.scope != nil && p.scope.headerPhase && p.scope.headerDocOpen:
		p.scope.addDocLine(text)
	default:
		p.pending = append(p.pending, text)
	}
}

func (p *fileParser) handleBlankLine() {
	switch {
	case p.proc != nil && p.proc.inPostSig:
		p.proc.postSigBuf = append(p.proc.postSigBuf, "")
	case p.scope != nil && p.scope.headerPhase && p.scope.headerDocOpen:
		// A blank line ends direct header attachment; later doc lines
		// buffer for the next symbol instead.
		p.scope.headerDocOpen = false
	case len(p.pending) > 0:
		// Preserve paragraph breaks inside an open doc block.
		p.pending = append(p.pending, "")
	}
}

func (p *fileParser) resolvePostSignatureDoc(raw string) {
	buf := p.proc.postSigBuf
	p.proc.postSigBuf = nil
	p.proc.inPostSig = false
	if len(buf) == 0 {
		return
	}

	argDecl := false
	for _, n := range declaredNames(raw) {
		if p.proc.known[n] {
			argDecl = true
			break
		}
	}
	if argDecl {
		p.pending = buf
	} else {
		p.proc.docLines = append(p.proc.docLines, buf...)
	}
}

func (p *fileParser) scopeEndMatches(raw string) bool {
	switch p.scope.kind {
	case scopeModule:
		return reEndModule.MatchString(raw)
	case scopeSubmodule:
		return reEndSubmodule.MatchString(raw)
	default:
		return reEndProgram.MatchString(raw)
	}
}

func (p *fileParser) closeScope(lineno int) {
	b := p.scope
	p.scope = nil
	p.typ = nil
	p.proc = nil
	p.pending = nil

	switch b.kind {
	case scopeModule:
		if prev, dup := p.out.Modules[b.name]; dup {
			p.warnDuplicate("module", b.name, prev.Location, b.loc)
		}
		p.out.Modules[b.name] = b.sealModule()
	case scopeSubmodule:
		if prev, dup := p.out.Submodules[b.name]; dup {
			p.warnDuplicate("submodule", b.name, prev.Location, b.loc)
		}
		p.out.Submodules[b.name] = b.sealSubmodule()
	default:
		source := strings.Join(p.lines[b.startLine-1:lineno], "\n")
		if prev, dup := p.out.Programs[b.name]; dup {
			p.warnDuplicate("program", b.name, prev.Location, b.loc)
		}
		p.out.Programs[b.name] = b.sealProgram(source)
	}
}

// warnDuplicate surfaces a name collision. The later definition still
// replaces the earlier one, matching the long-standing behavior hosts
// depend on.
func (p *fileParser) warnDuplicate(kind, name string, prev, next *model.SourceLocation) {
	if prev != nil && next != nil {
		warnf("%s %q at %s:%d replaces earlier definition at %s:%d",
			kind, name, next.Path, next.Line, prev.Path, prev.Line)
		return
	}
	warnf("duplicate %s %q; keeping the later definition", kind, name)
}

func (p *fileParser) closeProc() {
	b := p.proc
	p.proc = b.parent
	p.pending = nil

	// Only procedures opened directly in the container's contains
	// section are promoted; deeper nesting is walked for bookkeeping
	// and discarded.
	if b.parent == nil && p.scope != nil {
		p.scope.procedures = append(p.scope.procedures, b.seal())
	}
}

func (p *fileParser) stepOutsideScope(lineno int, raw string) {
	if name, ok := classifyModule(raw); ok {
		predoc := p.pendingAsLines()
		p.scope = newScopeBuilder(scopeModule, name, "", p.location(lineno), predoc)
		return
	}
	if parent, name, ok := classifySubmodule(raw); ok {
		predoc := p.pendingAsLines()
		p.scope = newScopeBuilder(scopeSubmodule, name, parent, p.location(lineno), predoc)
		return
	}
	if name, ok := classifyProgram(raw); ok {
		predoc := p.pendingAsLines()
		p.scope = newScopeBuilder(scopeProgram, name, "", p.location(lineno), predoc)
		return
	}
	// Anything else outside a scope just breaks a pending doc chain.
	p.pending = nil
}

// pendingAsLines hands the pending buffer to a new scope's header doc
// and clears it.
func (p *fileParser) pendingAsLines() []string {
	if len(p.pending) == 0 {
		return nil
	}
	lines := p.pending
	p.pending = nil
	return lines
}

func (p *fileParser) stepInsideScope(lineno int, raw string) {
	code := stripInlineComment(raw)
	low := strings.ToLower(strings.TrimSpace(code))

	// contains switches a container from declarations to procedures.
	// Inside an open procedure it introduces that procedure's internal
	// procedures instead and does not touch the container.
	if p.proc == nil && reContains.MatchString(raw) {
		p.scope.headerPhase = false
		p.scope.afterContains = true
		p.pending = nil
		return
	}

	if p.scope.headerPhase {
		if hasAnyPrefix(low, "use ", "use,", "use::", "implicit ", "private", "public") {
			if p.scope.kind == scopeProgram {
				if dep, ok := classifyUse(raw); ok {
					p.scope.addDependency(dep)
				}
			}
			return
		}
		// Any other statement ends header doc collection and is then
		// classified normally.
		p.scope.headerPhase = false
	}

	if p.scope.kind == scopeProgram && !p.scope.afterContains && p.proc == nil {
		if dep, ok := classifyUse(raw); ok {
			p.scope.addDependency(dep)
			p.pending = nil
			return
		}
	}

	if sig, ok := classifyProcedure(raw); ok && p.procedureAllowed() {
		p.proc = newProcBuilder(p.proc, sig, p.location(lineno), p.flushPending())
		return
	}

	if p.proc != nil {
		if p.stepInsideProc(raw) {
			return
		}
	}

	if p.proc == nil {
		if name, ok := classifyTypeDef(raw); ok && p.scope.kind != scopeProgram {
			p.typ = &typeBuilder{name: name, doc: p.flushPending(), loc: p.location(lineno)}
			return
		}

		if name, ok := classifyInterface(raw); ok && p.scope.kind != scopeProgram {
			p.scope.interfaces = append(p.scope.interfaces, model.Interface{
				Name:     name,
				Doc:      p.flushPending(),
				Location: p.location(lineno),
			})
			return
		}

		if p.scope.kind != scopeProgram && !p.scope.afterContains {
			if p.collectVariables(lineno, raw, low) {
				return
			}
		}
	}

	// Unrecognized statements are just "other code": they break any
	// pending doc chain.
	p.pending = nil
}

// procedureAllowed reports whether a signature on the current line may
// open a procedure body: module and submodule bodies anywhere, program
// bodies only after contains, and nested internal procedures inside an
// already-open procedure.
func (p *fileParser) procedureAllowed() bool {
	if p.proc != nil {
		return true
	}
	if p.scope.kind == scopeProgram {
		return p.scope.afterContains
	}
	return true
}

// stepInsideProc handles declaration lines inside an open procedure
// body, attaching decls and docs to known argument and result names.
// Returns true when the line was consumed.
func (p *fileParser) stepInsideProc(raw string) bool {
	// Inline docs: "integer, intent(in) :: a !> first integer".
	if pos, marker := inlineDoc(raw, p.markers); pos >= 0 {
		codePart := strings.TrimRight(raw[:pos], " \t")
		docPart := strings.TrimSpace(raw[pos+len(marker):])
		if docPart != "" {
			decl := declPrefix(codePart)
			dims := declDims(codePart)
			for _, n := range declaredNames(codePart) {
				p.proc.recordDecl(n, decl, dims[n])
				p.proc.recordDoc(n, docPart)
			}
			p.pending = nil
			return true
		}
	}

	// Preceding doc lines right above a declaration.
	if len(p.pending) > 0 {
		names := declaredNames(raw)
		if len(names) > 0 {
			decl := declPrefix(raw)
			dims := declDims(raw)
			doc := p.flushPending()
			if doc != "" {
				for _, n := range names {
					p.proc.recordDecl(n, decl, dims[n])
					p.proc.recordDoc(n, doc)
				}
				return true
			}
		}
	}

	// Plain declarations still contribute decl text.
	decl := declPrefix(raw)
	dims := declDims(raw)
	for _, n := range declaredNames(raw) {
		p.proc.recordDecl(n, decl, dims[n])
	}
	return false
}

// Statements in a declaration section that contain "::" but declare no
// data: visibility lists, bindings and the like.
func isNonDataStatement(low string) bool {
	return hasAnyPrefix(low,
		"use ", "use,", "use::", "implicit ",
		"public", "private", "procedure", "generic", "final",
		"import", "save", "sequence")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, pre := range prefixes {
		if strings.HasPrefix(s, pre) {
			return true
		}
	}
	return false
}

// collectVariables records module/submodule-level data declarations.
// Returns true when the line declared at least one name.
func (p *fileParser) collectVariables(lineno int, raw string, low string) bool {
	if isNonDataStatement(low) {
		return false
	}

	codePart := raw
	inlineText := ""
	if pos, marker := inlineDoc(raw, p.markers); pos >= 0 {
		codePart = strings.TrimRight(raw[:pos], " \t")
		inlineText = strings.TrimSpace(raw[pos+len(marker):])
	}

	names := declaredNames(codePart)
	decl := declPrefix(codePart)
	if len(names) == 0 || decl == "" {
		return false
	}

	doc := p.flushPending()
	if inlineText != "" {
		if doc != "" {
			doc += "\n" + inlineText
		} else {
			doc = inlineText
		}
	}

	dims := declDims(codePart)
	for _, n := range names {
		p.scope.addVariable(model.Variable{
			Name:     n,
			Decl:     mergeDims(decl, dims[n]),
			Doc:      doc,
			Location: p.location(lineno),
		})
	}
	return true
}

func (p *fileParser) stepInsideType(lineno int, raw string) {
	if reEndType.MatchString(raw) {
		p.scope.types = append(p.scope.types, p.typ.seal())
		p.typ = nil
		p.pending = nil
		return
	}

	if reContains.MatchString(raw) {
		p.typ.inContains = true
		p.pending = nil
		return
	}

	codePart := raw
	inlineText := ""
	if pos, marker := inlineDoc(raw, p.markers); pos >= 0 {
		codePart = strings.TrimRight(raw[:pos], " \t")
		inlineText = strings.TrimSpace(raw[pos+len(marker):])
		p.pending = nil
	}

	if p.typ.inContains {
		if name, target, ok := classifyTypeBinding(codePart); ok {
			doc := p.flushPending()
			if inlineText != "" {
				if doc != "" {
					doc += "\n" + inlineText
				} else {
					doc = inlineText
				}
			}
			p.typ.bindings = append(p.typ.bindings, model.TypeBoundProcedure{
				Name:     name,
				Target:   target,
				Doc:      doc,
				Location: p.location(lineno),
			})
			return
		}
		p.pending = nil
		return
	}

	// Component declarations live before the type's contains. Bindings,
	// visibility statements and nested declarations are skipped.
	low := strings.ToLower(strings.TrimSpace(stripInlineComment(codePart)))
	if hasAnyPrefix(low, "procedure", "generic", "final", "private", "public", "type") {
		p.pending = nil
		return
	}

	names := declaredNames(codePart)
	decl := declPrefix(codePart)
	if len(names) > 0 && decl != "" {
		doc := p.flushPending()
		if inlineText != "" {
			if doc != "" {
				doc += "\n" + inlineText
			} else {
				doc = inlineText
			}
		}
		dims := declDims(codePart)
		inits := declInits(codePart)
		for _, n := range names {
			componentDecl := mergeDims(decl, dims[n])
			if init, ok := inits[n]; ok {
				componentDecl += ", Default = " + init
			}
			p.typ.components = append(p.typ.components, model.Component{
				Name:     n,
				Decl:     componentDecl,
				Doc:      doc,
				Location: p.location(lineno),
			})
		}
		return
	}

	// Anything else inside a type breaks a pending doc chain.
	p.pending = nil
}
