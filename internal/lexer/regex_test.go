package lexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// Test Plan for the regex engine:
// - Module header docs: multi-line join, blank line closes the window
// - Procedure capture: signatures, arg docs (inline and preceding), result
// - Post-signature ambiguity resolved by the following statement
// - Derived types: components with dims and defaults, bound procedures
// - Programs: use dependencies, internal procedures, verbatim source
// - Module variables with case-insensitive dedup
// - Robustness: unterminated scopes, duplicates, unreadable files,
//   custom markers, context cancellation

func writeFortran(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func parseOne(t *testing.T, src string) model.ParseResult {
	t.Helper()
	path := writeFortran(t, t.TempDir(), "input.f90", src)
	result, err := NewRegexLexer().Parse(context.Background(), []string{path}, nil)
	require.NoError(t, err)
	return result
}

func TestRegexLexerHeaderDocs(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `!> Above the statement.
module spaced
!> First line.
!> Second line.
implicit none

!> Belongs to the variable below.
integer :: v
end module spaced
`)

	mod, ok := result.Modules["spaced"]
	require.True(t, ok)
	assert.Equal(t, "Above the statement.\nFirst line.\nSecond line.", mod.Doc)

	require.Len(t, mod.Variables, 1)
	assert.Equal(t, "v", mod.Variables[0].Name)
	assert.Equal(t, "Belongs to the variable below.", mod.Variables[0].Doc)
}

func TestRegexLexerProcedures(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module math_utils
implicit none

!> Adds two integers.
subroutine add_integers(a, b, c)
  integer, intent(in) :: a !> first addend
  !> second addend
  integer, intent(in) :: b
  integer, intent(out) :: c
  c = a + b
end subroutine add_integers

!> Multiplies two reals.
function multiply_reals(x, y) result(res)
  real, intent(in) :: x
  real, intent(in) :: y
  real :: res !> product of x and y
  res = x * y
end function multiply_reals
end module math_utils
`)

	mod, ok := result.Modules["math_utils"]
	require.True(t, ok)
	require.Len(t, mod.Procedures, 2)

	add := mod.Procedures[0]
	assert.Equal(t, "add_integers", add.Name)
	assert.Equal(t, model.KindSubroutine, add.Kind)
	assert.Equal(t, "Adds two integers.", add.Doc)
	assert.Equal(t, "subroutine add_integers(a, b, c)", add.Signature)
	require.Len(t, add.Arguments, 3)
	assert.Equal(t, "integer, intent(in)", add.Arguments[0].Decl)
	assert.Equal(t, "first addend", add.Arguments[0].Doc)
	assert.Equal(t, "second addend", add.Arguments[1].Doc)
	assert.Equal(t, "integer, intent(out)", add.Arguments[2].Decl)
	assert.Empty(t, add.Arguments[2].Doc)
	assert.Nil(t, add.Result)

	mul := mod.Procedures[1]
	assert.Equal(t, model.KindFunction, mul.Kind)
	assert.Equal(t, "function multiply_reals(x, y) -> res", mul.Signature)
	assert.Equal(t, "Multiplies two reals.", mul.Doc)
	require.Len(t, mul.Arguments, 2)
	assert.Equal(t, []string{"x", "y"}, []string{mul.Arguments[0].Name, mul.Arguments[1].Name})
	require.NotNil(t, mul.Result)
	assert.Equal(t, "res", mul.Result.Name)
	assert.Equal(t, "real", mul.Result.Decl)
	assert.Equal(t, "product of x and y", mul.Result.Doc)
}

func TestRegexLexerResultDefaultsToFunctionName(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module m
contains
function answer()
  integer :: answer
  answer = 42
end function answer
end module m
`)

	mod := result.Modules["m"]
	require.Len(t, mod.Procedures, 1)
	fn := mod.Procedures[0]
	require.NotNil(t, fn.Result)
	assert.Equal(t, "answer", fn.Result.Name)
	assert.Equal(t, "integer", fn.Result.Decl)
}

func TestRegexLexerPostSignatureDoc(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module ambig
contains
function square(x) result(y)
  !> value to square
  real, intent(in) :: x
  real :: y
  y = x * x
end function square

subroutine announce()
  !> Prints a banner.
  print *, "hello"
end subroutine announce
end module ambig
`)

	mod := result.Modules["ambig"]
	require.Len(t, mod.Procedures, 2)

	// Followed by a declaration of a dummy argument: the doc is the
	// argument's, not the procedure's.
	square := mod.Procedures[0]
	assert.Empty(t, square.Doc)
	require.Len(t, square.Arguments, 1)
	assert.Equal(t, "value to square", square.Arguments[0].Doc)

	// Followed by executable code: the doc describes the procedure.
	announce := mod.Procedures[1]
	assert.Equal(t, "Prints a banner.", announce.Doc)
}

func TestRegexLexerDerivedType(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module geometry
implicit none

!> A 3-vector.
type :: vector_type
  !> x component
  real :: x
  real :: y !> y component
  real :: elements(3,3) = 0.0
contains
  procedure :: magnitude => vector_magnitude
  !> Dot product.
  procedure :: dot
end type vector_type

type(vector_type) :: origin
end module geometry
`)

	mod := result.Modules["geometry"]
	require.Len(t, mod.Types, 1)

	typ := mod.Types[0]
	assert.Equal(t, "vector_type", typ.Name)
	assert.Equal(t, "A 3-vector.", typ.Doc)

	require.Len(t, typ.Components, 3)
	assert.Equal(t, "x component", typ.Components[0].Doc)
	assert.Equal(t, "y component", typ.Components[1].Doc)
	assert.Equal(t, "real, dimension(3,3), Default = 0.0", typ.Components[2].Decl)

	require.Len(t, typ.BoundProcedures, 2)
	assert.Equal(t, "vector_magnitude", typ.BoundProcedures[0].Target)
	assert.Equal(t, "dot", typ.BoundProcedures[1].Target)
	assert.Equal(t, "Dot product.", typ.BoundProcedures[1].Doc)

	// type(foo) :: v is a variable declaration, never a type definition.
	require.Len(t, mod.Variables, 1)
	assert.Equal(t, "origin", mod.Variables[0].Name)
	assert.Equal(t, "type(vector_type)", mod.Variables[0].Decl)
}

func TestRegexLexerProgram(t *testing.T) {
	t.Parallel()

	src := `!> Entry point for the demo.
program demo
  use constants
  use output_mod
  use CONSTANTS
  implicit none
  call run()
contains
  !> Computes the answer.
  function inner() result(n)
    integer :: n
    n = 42
  contains
    subroutine deeper()
    end subroutine deeper
  end function inner
end program demo
`
	result := parseOne(t, src)

	prog, ok := result.Programs["demo"]
	require.True(t, ok)
	assert.Equal(t, "Entry point for the demo.", prog.Doc)

	// Case-insensitive dedup, first-seen order.
	assert.Equal(t, []string{"constants", "output_mod"}, prog.Dependencies)

	// Only depth-1 internal procedures are promoted.
	require.Len(t, prog.Procedures, 1)
	inner := prog.Procedures[0]
	assert.Equal(t, "inner", inner.Name)
	assert.Equal(t, "Computes the answer.", inner.Doc)
	require.NotNil(t, inner.Result)
	assert.Equal(t, "integer", inner.Result.Decl)

	// The verbatim unit runs from the program statement to end program.
	assert.True(t, strings.HasPrefix(prog.Source, "program demo"))
	assert.True(t, strings.HasSuffix(prog.Source, "end program demo"))
	assert.Contains(t, prog.Source, "call run()")
}

func TestRegexLexerDimensionMergedOnce(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module arrays
contains
subroutine fill(values, grid)
  real, dimension(:), intent(in) :: values
  real, intent(out) :: grid(3,3)
end subroutine fill
end module arrays
`)

	mod := result.Modules["arrays"]
	require.Len(t, mod.Procedures, 1)
	args := mod.Procedures[0].Arguments
	require.Len(t, args, 2)

	// An explicit dimension attribute is kept as written, not doubled.
	assert.Equal(t, "real, dimension(:), intent(in)", args[0].Decl)
	assert.Equal(t, 1, strings.Count(args[0].Decl, "dimension"))

	// A per-name array spec is folded into a dimension attribute.
	assert.Equal(t, "real, intent(out), dimension(3,3)", args[1].Decl)
}

func TestRegexLexerModuleVariables(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module constants
implicit none
private

!> Pi.
real, parameter :: pi = 3.14159
integer :: counts(10) !> histogram bins
real :: PI = 3.0

!> orphaned
write (*, *) "not a declaration"
integer :: late
end module constants
`)

	mod := result.Modules["constants"]
	require.Len(t, mod.Variables, 3)

	assert.Equal(t, "pi", mod.Variables[0].Name)
	assert.Equal(t, "real, parameter", mod.Variables[0].Decl)
	assert.Equal(t, "Pi.", mod.Variables[0].Doc)

	assert.Equal(t, "integer, dimension(10)", mod.Variables[1].Decl)
	assert.Equal(t, "histogram bins", mod.Variables[1].Doc)

	// A doc block followed by executable code is discarded.
	assert.Equal(t, "late", mod.Variables[2].Name)
	assert.Empty(t, mod.Variables[2].Doc)
}

func TestRegexLexerInterfaces(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module generic_ops
implicit none

!> Swaps two values of any supported kind.
interface swap
  module procedure swap_int
  module procedure swap_real
end interface swap
end module generic_ops
`)

	mod := result.Modules["generic_ops"]
	require.Len(t, mod.Interfaces, 1)
	assert.Equal(t, "swap", mod.Interfaces[0].Name)
	assert.Equal(t, "Swaps two values of any supported kind.", mod.Interfaces[0].Doc)
}

func TestRegexLexerSubmodule(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `!> Implementation part.
submodule (shapes) shapes_impl
contains
module function area(r) result(a)
  real, intent(in) :: r
  real :: a
  a = 3.14159 * r * r
end function area
end submodule shapes_impl
`)

	sub, ok := result.Submodules["shapes_impl"]
	require.True(t, ok)
	assert.Equal(t, "shapes", sub.Parent)
	assert.Equal(t, "Implementation part.", sub.Doc)
	require.Len(t, sub.Procedures, 1)
	assert.Equal(t, "area", sub.Procedures[0].Name)
}

func TestRegexLexerCustomMarkers(t *testing.T) {
	t.Parallel()

	markers, err := MarkersFromChars([]string{"!"})
	require.NoError(t, err)

	path := writeFortran(t, t.TempDir(), "input.f90", `module custom
!! Documented with double bangs.
!> Not a doc marker here.
integer :: n !! element count
end module custom
`)

	lex := NewRegexLexer()
	result, err := lex.Parse(context.Background(), []string{path}, markers)
	require.NoError(t, err)

	mod := result.Modules["custom"]
	assert.Equal(t, "Documented with double bangs.", mod.Doc)
	require.Len(t, mod.Variables, 1)
	assert.Equal(t, "element count", mod.Variables[0].Doc)

	// Parsing the same input twice yields identical results.
	again, err := lex.Parse(context.Background(), []string{path}, markers)
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

func TestRegexLexerUnterminatedScopeDropped(t *testing.T) {
	t.Parallel()

	result := parseOne(t, `module finished
end module finished

module unfinished
integer :: x
`)

	_, ok := result.Modules["finished"]
	assert.True(t, ok)
	_, ok = result.Modules["unfinished"]
	assert.False(t, ok)
}

func TestRegexLexerDuplicateLastWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFortran(t, dir, "a.f90", "module dup\nend module dup\n")
	second := writeFortran(t, dir, "b.f90", "module dup\nend module dup\n")

	result, err := NewRegexLexer().Parse(context.Background(), []string{first, second}, nil)
	require.NoError(t, err)

	mod, ok := result.Modules["dup"]
	require.True(t, ok)
	require.NotNil(t, mod.Location)
	assert.Equal(t, second, mod.Location.Path)
}

func TestRegexLexerSkipsUnreadableFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFortran(t, dir, "good.f90", "module ok\nend module ok\n")
	missing := filepath.Join(dir, "missing.f90")

	result, err := NewRegexLexer().Parse(context.Background(), []string{missing, good}, nil)
	require.NoError(t, err)
	_, ok := result.Modules["ok"]
	assert.True(t, ok)
}

func TestRegexLexerContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFortran(t, t.TempDir(), "input.f90", "module m\nend module m\n")
	_, err := NewRegexLexer().Parse(ctx, []string{path}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegexLexerProgressCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFortran(t, dir, "a.f90", "module a_mod\nend module a_mod\n")
	b := writeFortran(t, dir, "b.f90", "module b_mod\nend module b_mod\n")

	var seen []string
	lex := NewRegexLexer()
	lex.Progress = func(path string) { seen = append(seen, path) }

	_, err := lex.Parse(context.Background(), []string{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, seen)
}
