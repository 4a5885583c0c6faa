// Package lexer turns raw Fortran source text into the symbol tables in
// internal/model. It is a line-oriented recognizer, not a compiler front
// end: it tracks module, submodule and program scopes, derived-type and
// procedure bodies, and associates doc comments with the symbols they
// describe. Constructs it cannot recognize are skipped; a parse never
// fails because of irregular input.
package lexer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// Lexer parses a batch of Fortran source files into one ParseResult.
type Lexer interface {
	Name() string

	// Parse walks files in the given order. Markers are the doc-comment
	// prefixes to honor (DefaultMarkers when empty). Unreadable files
	// are skipped with a warning; the only returned error is context
	// cancellation.
	Parse(ctx context.Context, files []string, markers []string) (model.ParseResult, error)
}

// New returns the lexer engine with the given name. The host passes the
// engine selection in explicitly; there is no process-wide registry.
func New(engine string) (Lexer, error) {
	switch engine {
	case "", "regex":
		return NewRegexLexer(), nil
	default:
		return nil, fmt.Errorf("unknown lexer engine %q (available: regex)", engine)
	}
}

// RegexLexer is the line-oriented regex engine.
type RegexLexer struct {
	// Progress, when set, is called after each file has been walked.
	Progress func(path string)
}

// NewRegexLexer creates the regex engine.
func NewRegexLexer() *RegexLexer {
	return &RegexLexer{}
}

func (l *RegexLexer) Name() string { return "regex" }

// Parse implements Lexer. Files are walked front to back, one after
// another; name collisions across files resolve last-writer-wins in the
// given file order.
func (l *RegexLexer) Parse(ctx context.Context, files []string, markers []string) (model.ParseResult, error) {
	if len(markers) == 0 {
		markers = DefaultMarkers()
	}

	result := model.NewParseResult()
	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		lines, err := readLines(path)
		if err != nil {
			warnf("skipping unreadable file %s: %v", path, err)
			continue
		}

		fp := &fileParser{
			path:    path,
			lines:   lines,
			markers: markers,
			out:     &result,
		}
		fp.run()

		if l.Progress != nil {
			l.Progress(path)
		}
	}
	return result, nil
}

// readLines reads a file as UTF-8 text, substituting invalid byte
// sequences rather than failing.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ToValidUTF8(string(data), "�")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}
