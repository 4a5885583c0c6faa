// Package pipeline wires discovery, parsing and rendering into the one
// pass the CLI runs: find Fortran sources, parse them into a symbol
// table, write the configured outputs.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/config"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/discovery"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/lexer"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
	"github.com/fortran-lang/sphinx-fortran-domain/internal/render"
)

// Stats summarizes one pipeline run.
type Stats struct {
	FilesParsed int
	Modules     int
	Submodules  int
	Programs    int
	Duration    time.Duration
}

// ProgressReporter receives pipeline progress events. All methods may
// be called from the pipeline goroutine only.
type ProgressReporter interface {
	OnDiscoveryComplete(totalFiles int)
	OnFileParsed(path string)
	OnComplete(stats Stats)
}

// Pipeline runs the parse-and-render pass for one project.
type Pipeline struct {
	rootDir  string
	cfg      *config.Config
	progress ProgressReporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress attaches a progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(pl *Pipeline) {
		pl.progress = p
	}
}

// New creates a pipeline for the given project root and validated
// configuration.
func New(rootDir string, cfg *config.Config, opts ...Option) *Pipeline {
	pl := &Pipeline{rootDir: rootDir, cfg: cfg}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

// resolve anchors a possibly-relative configured path at the project
// root.
func (pl *Pipeline) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(pl.rootDir, path)
}

// Parse discovers and parses the sources without writing any output.
func (pl *Pipeline) Parse(ctx context.Context) (model.ParseResult, Stats, error) {
	start := time.Now()

	roots := make([]string, 0, len(pl.cfg.Sources.Roots))
	for _, r := range pl.cfg.Sources.Roots {
		roots = append(roots, pl.resolve(r))
	}

	finder, err := discovery.NewFinder(discovery.Options{
		Roots:      roots,
		Extensions: pl.cfg.Sources.Extensions,
		Include:    pl.cfg.Sources.Include,
		Exclude:    pl.cfg.Sources.Exclude,
	})
	if err != nil {
		return model.ParseResult{}, Stats{}, err
	}

	files, err := finder.Discover()
	if err != nil {
		return model.ParseResult{}, Stats{}, fmt.Errorf("discovering sources: %w", err)
	}
	if pl.progress != nil {
		pl.progress.OnDiscoveryComplete(len(files))
	}

	lex, err := lexer.New(pl.cfg.Lexer.Engine)
	if err != nil {
		return model.ParseResult{}, Stats{}, err
	}
	if rl, ok := lex.(*lexer.RegexLexer); ok && pl.progress != nil {
		rl.Progress = pl.progress.OnFileParsed
	}

	result, err := lex.Parse(ctx, files, pl.cfg.Markers())
	if err != nil {
		return result, Stats{}, err
	}

	stats := Stats{
		FilesParsed: len(files),
		Modules:     len(result.Modules),
		Submodules:  len(result.Submodules),
		Programs:    len(result.Programs),
		Duration:    time.Since(start),
	}
	return result, stats, nil
}

// Run parses the sources and writes the configured outputs. Returns the
// parse result so callers can chain further queries over it.
func (pl *Pipeline) Run(ctx context.Context) (model.ParseResult, Stats, error) {
	start := time.Now()
	result, stats, err := pl.Parse(ctx)
	if err != nil {
		return result, stats, err
	}

	writer, err := render.NewWriter(pl.resolve(pl.cfg.Output.Dir))
	if err != nil {
		return result, stats, err
	}
	defer writer.Close()

	format := pl.cfg.Output.Format
	if format == config.FormatMarkdown || format == config.FormatBoth {
		if err := writer.WritePages(result); err != nil {
			return result, stats, err
		}
	}
	if format == config.FormatJSON || format == config.FormatBoth {
		if err := writer.WriteSymbols(result); err != nil {
			return result, stats, err
		}
	}

	stats.Duration = time.Since(start)
	if pl.progress != nil {
		pl.progress.OnComplete(stats)
	}
	return result, stats, nil
}
