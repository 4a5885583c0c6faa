package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan:
// - Defaults validate and derive the "!>" marker
// - Validation rejects bad doc chars, formats and engines
// - Loader falls back to defaults when no config file exists
// - Config file values override defaults
// - Environment variables override the config file

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, []string{"!>"}, cfg.Markers())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Doc.Chars = []string{">>"}
	require.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Output.Format = "html"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")

	cfg = Default()
	cfg.Lexer.Engine = "treesitter"
	require.Error(t, Validate(cfg))

	cfg = Default()
	cfg.Sources.Roots = nil
	require.Error(t, Validate(cfg))
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Output.Dir, cfg.Output.Dir)
	assert.Equal(t, "regex", cfg.Lexer.Engine)
}

func TestLoadFromConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".fortdoc")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	yml := `sources:
  roots:
    - src
  exclude:
    - vendor
doc:
  chars:
    - ">"
    - "!"
output:
  dir: docs/api
  format: both
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yml), 0o644))

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"src"}, cfg.Sources.Roots)
	assert.Equal(t, []string{"vendor"}, cfg.Sources.Exclude)
	assert.Equal(t, []string{"!>", "!!"}, cfg.Markers())
	assert.Equal(t, "docs/api", cfg.Output.Dir)
	assert.Equal(t, FormatBoth, cfg.Output.Format)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Sources.Extensions, cfg.Sources.Extensions)
}

func TestLoadInvalidConfigFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configDir := filepath.Join(root, ".fortdoc")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yml := "output:\n  format: pdf\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yml), 0o644))

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestEnvOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ".fortdoc")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	yml := "output:\n  dir: from-file\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(yml), 0o644))

	t.Setenv("FORTDOC_OUTPUT_DIR", "from-env")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Output.Dir)
}
