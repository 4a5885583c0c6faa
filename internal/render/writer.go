package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fortran-lang/sphinx-fortran-domain/internal/model"
)

// SymbolsFile is the JSON export written next to the markdown pages.
const SymbolsFile = "symbols.json"

// Writer writes output files atomically using a temp directory and a
// rename, so a crash mid-write never leaves a truncated page behind.
type Writer struct {
	outputDir string
	tempDir   string
}

// NewWriter prepares the output directory and a clean temp area.
func NewWriter(outputDir string) (*Writer, error) {
	tempDir := filepath.Join(outputDir, ".tmp")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	// Drop stale temp files from an interrupted earlier run.
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, fmt.Errorf("cleaning temp directory: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	return &Writer{outputDir: outputDir, tempDir: tempDir}, nil
}

// WriteFile writes one output file atomically.
func (w *Writer) WriteFile(filename string, data []byte) error {
	tempPath := filepath.Join(w.tempDir, filename)
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	finalPath := filepath.Join(w.outputDir, filename)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteSymbols exports the parse result as indented JSON.
func (w *Writer) WriteSymbols(result model.ParseResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling symbols: %w", err)
	}
	return w.WriteFile(SymbolsFile, append(data, '\n'))
}

// WritePages renders and writes the markdown page set.
func (w *Writer) WritePages(result model.ParseResult) error {
	for name, content := range Pages(result) {
		if err := w.WriteFile(name, []byte(content)); err != nil {
			return fmt.Errorf("writing page %s: %w", name, err)
		}
	}
	return nil
}

// Close removes the temp directory.
func (w *Writer) Close() error {
	return os.RemoveAll(w.tempDir)
}
