// Package discovery finds the Fortran source files to parse. Roots are
// walked recursively; include and exclude globs match slash-separated
// paths relative to their root.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExtensions are the free-form Fortran suffixes collected when no
// extension filter is configured. Matching ignores case, so .F90 files
// are picked up as well.
var DefaultExtensions = []string{".f90", ".f95", ".f03", ".f08"}

// compiledPattern keeps the pattern text next to its compiled glob for
// error messages and **/-prefix handling.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Finder walks source roots and selects Fortran files.
type Finder struct {
	roots      []string
	extensions map[string]bool
	include    []compiledPattern
	exclude    []compiledPattern
}

// Options configures a Finder. Zero values fall back to sensible
// defaults: the current directory as the only root and
// DefaultExtensions as the suffix filter.
type Options struct {
	Roots      []string
	Extensions []string
	Include    []string // extra include globs, applied after the extension filter
	Exclude    []string // exclude globs; a bare directory name excludes its subtree
}

// NewFinder compiles the configured glob patterns. Invalid patterns are
// configuration mistakes and fail immediately.
func NewFinder(opts Options) (*Finder, error) {
	f := &Finder{
		roots:      opts.Roots,
		extensions: make(map[string]bool),
	}
	if len(f.roots) == 0 {
		f.roots = []string{"."}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = true
	}

	var err error
	if f.include, err = compilePatterns(opts.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns(opts.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Discover walks all roots and returns the matching files, absolute,
// sorted and deduplicated. A file reached through two overlapping roots
// appears once.
func (f *Finder) Discover() ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range f.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", root, err)
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return err
			}
			relPath = filepath.ToSlash(relPath)

			if d.IsDir() {
				if relPath != "." && f.excluded(relPath) {
					return filepath.SkipDir
				}
				return nil
			}

			if f.excluded(relPath) {
				return nil
			}
			if !f.wanted(relPath) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// wanted applies the extension filter and then any include globs.
func (f *Finder) wanted(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	if !f.extensions[ext] {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	return matchesAny(relPath, f.include)
}

// excluded checks the exclude globs, also treating a matching directory
// as excluding everything beneath it.
func (f *Finder) excluded(relPath string) bool {
	if matchesAny(relPath, f.exclude) {
		return true
	}
	return matchesAny(relPath+"/**", f.exclude)
}

// matchesAny reports whether a path matches any of the given patterns.
// Root-level paths additionally match patterns written with a **/
// prefix, so "**/*.f90" behaves the way users expect for files directly
// under a root.
func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}
	return false
}
