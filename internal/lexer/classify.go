package lexer

import (
	"regexp"
	"strings"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// Statement classifiers. Each one is a pure function over a single source
// line; the caller strips inline comments where the classifier needs code
// only. Fortran keywords are matched case-insensitively.
var (
	reModule    = regexp.MustCompile(`(?i)^\s*module\s+([A-Za-z_]\w*)\b`)
	reEndModule = regexp.MustCompile(`(?i)^\s*end\s*module\b`)

	reSubmodule    = regexp.MustCompile(`(?i)^\s*submodule\s*\(\s*([A-Za-z_]\w*)\s*\)\s*([A-Za-z_]\w*)\b`)
	reEndSubmodule = regexp.MustCompile(`(?i)^\s*end\s*submodule\b`)

	reProgram    = regexp.MustCompile(`(?i)^\s*program\s+([A-Za-z_]\w*)\b`)
	reEndProgram = regexp.MustCompile(`(?i)^\s*end\s*program\b`)

	reContains = regexp.MustCompile(`(?i)^\s*contains\b`)

	// Derived type definitions require the :: separator. Declarations of
	// variables of a derived type look like "type(foo) :: v" and are
	// rejected by the paren check in classifyTypeDef.
	reTypeDef   = regexp.MustCompile(`(?i)^\s*type\b([^!:]*)::\s*([A-Za-z_]\w*)\b`)
	reTypeParen = regexp.MustCompile(`(?i)^\s*type\s*\(`)
	reEndType   = regexp.MustCompile(`(?i)^\s*end\s*type\b`)

	reTypeBind = regexp.MustCompile(`(?i)^\s*procedure\b([^!:]*)::\s*([A-Za-z_]\w*)\b(?:\s*=>\s*([A-Za-z_]\w*)\b)?`)

	reSubroutine = regexp.MustCompile(`(?i)\bsubroutine\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?`)
	reFunction   = regexp.MustCompile(`(?i)\bfunction\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?`)
	reEndProc    = regexp.MustCompile(`(?i)^\s*end\s*(subroutine|function)\b`)
	reResult     = regexp.MustCompile(`(?i)\bresult\s*\(\s*([A-Za-z_]\w*)\s*\)`)

	reInterface = regexp.MustCompile(`(?i)^\s*(?:abstract\s+)?interface\s+([A-Za-z_]\w*)\b`)

	reUse = regexp.MustCompile(`(?i)^\s*use\b\s*(?:,\s*(?:non_intrinsic|intrinsic)\s*)?(?:\s*::\s*)?([A-Za-z_]\w*)\b`)

	reIdent     = regexp.MustCompile(`^([A-Za-z_]\w*)`)
	reIdentDims = regexp.MustCompile(`^([A-Za-z_]\w*)\s*\(([^)]*)\)`)
)

// classifyModule matches "module <name>". Definitions of the form
// "module procedure foo" are separate-module-procedure bodies, not module
// openings, and are excluded.
func classifyModule(line string) (string, bool) {
	m := reModule.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if strings.EqualFold(m[1], "procedure") {
		return "", false
	}
	return m[1], true
}

// classifySubmodule matches "submodule (<parent>) <name>".
func classifySubmodule(line string) (parent, name string, ok bool) {
	m := reSubmodule.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// classifyProgram matches "program <name>".
func classifyProgram(line string) (string, bool) {
	m := reProgram.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// classifyTypeDef matches derived-type definitions like
// "type, public :: vector_type" but not declarations like
// "type(vector_type) :: v".
func classifyTypeDef(line string) (string, bool) {
	if reTypeParen.MatchString(line) {
		return "", false
	}
	m := reTypeDef.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// classifyTypeBinding matches type-bound procedure bindings like
// "procedure :: magnitude => vector_magnitude". Without an explicit
// target the binding name doubles as the target.
func classifyTypeBinding(line string) (name, target string, ok bool) {
	m := reTypeBind.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	name = m[2]
	target = m[3]
	if target == "" {
		target = name
	}
	return name, target, true
}

// procSignature is a recognized subroutine or function statement.
type procSignature struct {
	kind      model.ProcedureKind
	name      string
	args      []string // dummy argument names in declaration order
	resultVar string   // from a result(...) clause; empty if absent
	raw       string   // signature text with the comment stripped
}

// classifyProcedure recognizes procedure signatures. The keywords are
// searched, not anchored, so prefixed declarations like
// "pure recursive function foo" and "real function foo" both match.
func classifyProcedure(line string) (procSignature, bool) {
	code := stripInlineComment(line)
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), "end ") {
		return procSignature{}, false
	}

	if m := reSubroutine.FindStringSubmatch(code); m != nil {
		return procSignature{
			kind: model.KindSubroutine,
			name: m[1],
			args: splitArgNames(m[2]),
			raw:  strings.TrimSpace(code),
		}, true
	}
	if m := reFunction.FindStringSubmatch(code); m != nil {
		sig := procSignature{
			kind: model.KindFunction,
			name: m[1],
			args: splitArgNames(m[2]),
			raw:  strings.TrimSpace(code),
		}
		if r := reResult.FindStringSubmatch(code); r != nil {
			sig.resultVar = r[1]
		}
		return sig, true
	}
	return procSignature{}, false
}

func splitArgNames(argList string) []string {
	argList = strings.TrimSpace(argList)
	if argList == "" {
		return nil
	}
	var names []string
	for _, a := range strings.Split(argList, ",") {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return names
}

// normalizeSignature collapses whitespace and rewrites a result(...)
// clause into an arrow suffix: "function foo(a) result(r)" becomes
// "function foo(a) -> r".
func normalizeSignature(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if m := reResult.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(reResult.ReplaceAllString(s, ""))
		s += " -> " + m[1]
	}
	return s
}

// classifyInterface matches named (possibly abstract) interface blocks.
// Anonymous interface blocks and end statements do not match.
func classifyInterface(line string) (string, bool) {
	code := stripInlineComment(line)
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), "end interface") {
		return "", false
	}
	m := reInterface.FindStringSubmatch(code)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// classifyUse matches "use <module>", tolerating intrinsic/non_intrinsic
// qualifiers and the :: form.
func classifyUse(line string) (string, bool) {
	m := reUse.FindStringSubmatch(stripInlineComment(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// splitDeclaration splits a declaration statement on the first
// paren-depth-0 "::". ok is false when the statement has no top-level
// separator and therefore is not a declaration.
func splitDeclaration(code string) (prefix, names string, ok bool) {
	depth := 0
	for i := 0; i+1 < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 && code[i+1] == ':' {
				return strings.TrimSpace(code[:i]), code[i+2:], true
			}
		}
	}
	return "", "", false
}

// splitTopLevelCommas splits on commas outside parentheses, so array
// bounds and type parameters stay intact.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var buf strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '(':
			depth++
			buf.WriteByte(ch)
		case ch == ')':
			if depth > 0 {
				depth--
			}
			buf.WriteByte(ch)
		case ch == ',' && depth == 0:
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteByte(ch)
		}
	}
	parts = append(parts, buf.String())
	return parts
}

// declaredNames extracts the declared identifiers from a statement
// containing "::", stopping each token at its initializer.
func declaredNames(line string) []string {
	_, rhs, ok := splitDeclaration(stripInlineComment(line))
	if !ok {
		return nil
	}
	var names []string
	for _, token := range splitTopLevelCommas(rhs) {
		t := strings.TrimSpace(token)
		if t == "" {
			continue
		}
		if i := strings.IndexByte(t, '='); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		if m := reIdent.FindStringSubmatch(t); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// declPrefix returns the shared declaration text left of "::" (type plus
// attributes), applied to every name in the statement.
func declPrefix(line string) string {
	prefix, _, ok := splitDeclaration(strings.TrimSpace(stripInlineComment(line)))
	if !ok {
		return ""
	}
	return prefix
}

// declDims extracts per-name array specs: "real :: a(:), b(1:3)" yields
// {"a": ":", "b": "1:3"}.
func declDims(line string) map[string]string {
	_, rhs, ok := splitDeclaration(stripInlineComment(line))
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, token := range splitTopLevelCommas(rhs) {
		t := strings.TrimSpace(token)
		if i := strings.IndexByte(t, '='); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		m := reIdentDims.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if dims := strings.TrimSpace(m[2]); dims != "" {
			out[m[1]] = dims
		}
	}
	return out
}

// declInits extracts per-name initializers: "real :: x = 0.0" yields
// {"x": "0.0"}. Used for derived-type component defaults; dummy argument
// declarations cannot carry initializers.
func declInits(line string) map[string]string {
	_, rhs, ok := splitDeclaration(stripInlineComment(line))
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, token := range splitTopLevelCommas(rhs) {
		t := strings.TrimSpace(token)
		i := strings.IndexByte(t, '=')
		if i < 0 {
			continue
		}
		lhs := strings.TrimSpace(t[:i])
		expr := strings.TrimSpace(strings.TrimPrefix(t[i:], "="))
		// Pointer initializers use "=>"; keep the expression as written.
		expr = strings.TrimSpace(strings.TrimPrefix(expr, ">"))
		m := reIdent.FindStringSubmatch(lhs)
		if m == nil || expr == "" {
			continue
		}
		out[m[1]] = expr
	}
	return out
}

// mergeDims appends a per-name dimension suffix to a declaration unless
// the declaration already carries one.
func mergeDims(decl, dims string) string {
	if dims == "" {
		return decl
	}
	if decl == "" {
		return "dimension(" + dims + ")"
	}
	if strings.Contains(strings.ToLower(decl), "dimension") {
		return decl
	}
	return decl + ", dimension(" + dims + ")"
}
