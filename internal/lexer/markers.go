package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMarker is the doc-comment prefix used when none is configured.
const DefaultMarker = "!>"

// DefaultMarkers returns the default doc marker set.
func DefaultMarkers() []string {
	return []string{DefaultMarker}
}

// MarkersFromChars converts configured doc characters (e.g. [">"]) into
// the two-character markers the engine matches against (e.g. ["!>"]).
// Every entry must be a single character; anything else is a caller
// mistake and fails before any parsing starts.
func MarkersFromChars(chars []string) ([]string, error) {
	cleaned := make([]string, 0, len(chars))
	for _, c := range chars {
		if strings.TrimSpace(c) == "" {
			continue
		}
		cleaned = append(cleaned, c)
	}
	if len(cleaned) == 0 {
		return DefaultMarkers(), nil
	}

	markers := make([]string, 0, len(cleaned))
	for _, c := range cleaned {
		if utf8.RuneCountInString(c) != 1 {
			return nil, fmt.Errorf("doc chars entries must be single characters, got %q", c)
		}
		markers = append(markers, "!"+c)
	}
	return markers, nil
}

// docLine reports whether the line is a doc comment, i.e. starts with one
// of the markers after leading whitespace. The returned text has the
// marker and at most one separating space or tab removed.
func docLine(line string, markers []string) (string, bool) {
	stripped := strings.TrimLeft(line, " \t")
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.HasPrefix(stripped, m) {
			text := stripped[len(m):]
			if len(text) > 0 && (text[0] == ' ' || text[0] == '\t') {
				text = text[1:]
			}
			return text, true
		}
	}
	return "", false
}

// inlineDoc finds the earliest doc marker appearing after code on the
// same line. Markers without a '!' are ignored so operators like => are
// never mistaken for docs. Returns the marker position, or -1.
func inlineDoc(line string, markers []string) (int, string) {
	best := -1
	bestMarker := ""
	for _, m := range markers {
		if m == "" || !strings.Contains(m, "!") {
			continue
		}
		pos := strings.Index(line, m)
		if pos == -1 {
			continue
		}
		if strings.TrimSpace(line[:pos]) == "" {
			// A leading marker is a doc line, not an inline doc.
			continue
		}
		if best == -1 || pos < best {
			best = pos
			bestMarker = m
		}
	}
	return best, bestMarker
}

// stripInlineComment removes a trailing Fortran comment. It stops at the
// first '!' without trying to understand string literals.
func stripInlineComment(line string) string {
	if i := strings.IndexByte(line, '!'); i >= 0 {
		return line[:i]
	}
	return line
}
