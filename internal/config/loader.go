package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader loads fortdoc configuration.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults, then config file, then environment (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at the given project
// directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load reads .fortdoc/config.yml under the root directory. A missing
// config file is fine; defaults plus FORTDOC_* environment variables
// apply.
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".fortdoc")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("FORTDOC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("output.dir")
	v.BindEnv("output.format")
	v.BindEnv("lexer.engine")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("sources.roots", defaults.Sources.Roots)
	v.SetDefault("sources.include", defaults.Sources.Include)
	v.SetDefault("sources.exclude", defaults.Sources.Exclude)
	v.SetDefault("sources.extensions", defaults.Sources.Extensions)

	v.SetDefault("doc.chars", defaults.Doc.Chars)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.format", defaults.Output.Format)

	v.SetDefault("lexer.engine", defaults.Lexer.Engine)
}
