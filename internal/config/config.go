// Package config holds fortdoc's configuration: which sources to scan,
// how doc comments are marked, and what output to produce. It loads
// from .fortdoc/config.yml with FORTDOC_* environment overrides.
package config

import (
	"fmt"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/discovery"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/lexer"
)

// Output formats accepted by output.format.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatBoth     = "both"
)

// Config is the complete fortdoc configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Doc     DocConfig     `yaml:"doc" mapstructure:"doc"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Lexer   LexerConfig   `yaml:"lexer" mapstructure:"lexer"`
}

// SourcesConfig defines which files to parse.
type SourcesConfig struct {
	Roots      []string `yaml:"roots" mapstructure:"roots"`           // directories to walk
	Include    []string `yaml:"include" mapstructure:"include"`       // extra include globs
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`       // globs and directory names to skip
	Extensions []string `yaml:"extensions" mapstructure:"extensions"` // source suffixes, case-insensitive
}

// DocConfig controls doc-comment recognition.
type DocConfig struct {
	// Chars are the single characters following a bang that mark a doc
	// comment, e.g. [">"] for "!>".
	Chars []string `yaml:"chars" mapstructure:"chars"`
}

// OutputConfig controls what gets written and where.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"` // markdown, json or both
}

// LexerConfig selects the parsing engine.
type LexerConfig struct {
	Engine string `yaml:"engine" mapstructure:"engine"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Roots:      []string{"."},
			Exclude:    []string{"build", ".git"},
			Extensions: discovery.DefaultExtensions,
		},
		Doc: DocConfig{
			Chars: []string{">"},
		},
		Output: OutputConfig{
			Dir:    "fortdoc-out",
			Format: FormatMarkdown,
		},
		Lexer: LexerConfig{
			Engine: "regex",
		},
	}
}

// Validate checks the configuration for mistakes worth failing on.
func Validate(cfg *Config) error {
	if len(cfg.Sources.Roots) == 0 {
		return fmt.Errorf("sources.roots must not be empty")
	}

	if _, err := lexer.MarkersFromChars(cfg.Doc.Chars); err != nil {
		return fmt.Errorf("doc.chars: %w", err)
	}

	switch cfg.Output.Format {
	case FormatMarkdown, FormatJSON, FormatBoth:
	default:
		return fmt.Errorf("output.format must be %q, %q or %q, got %q",
			FormatMarkdown, FormatJSON, FormatBoth, cfg.Output.Format)
	}

	if _, err := lexer.New(cfg.Lexer.Engine); err != nil {
		return fmt.Errorf("lexer.engine: %w", err)
	}
	return nil
}

// Markers derives the doc markers from the configured characters. Call
// only after Validate; on a validation failure it falls back to the
// default marker set.
func (c *Config) Markers() []string {
	markers, err := lexer.MarkersFromChars(c.Doc.Chars)
	if err != nil {
		return lexer.DefaultMarkers()
	}
	return markers
}
