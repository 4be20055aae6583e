// Package config loads the generator settings from .sumsplit.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/sumsplit/codegen"
	"github.com/reoring/sumsplit/internal/gen"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".sumsplit.yaml"

// Config holds all generator settings.
type Config struct {
	Naming  NamingConfig  `yaml:"naming"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	// Concurrency bounds parallel schema extraction. Zero means GOMAXPROCS.
	Concurrency int `yaml:"concurrency"`
	// Lang selects the diagnostics language (en, ja).
	Lang string `yaml:"lang"`
}

// NamingConfig configures generated identifiers.
type NamingConfig struct {
	Owned       string `yaml:"owned"`
	Shared      string `yaml:"shared"`
	Exclusive   string `yaml:"exclusive"`
	SplitPrefix string `yaml:"split_prefix"`
	RefSuffix   string `yaml:"ref_suffix"`
	MutSuffix   string `yaml:"mut_suffix"`
	WithPrefix  string `yaml:"with_prefix"`
}

// OutputConfig configures generated files.
type OutputConfig struct {
	FileSuffix    string `yaml:"file_suffix"`
	RuntimeImport string `yaml:"runtime_import"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the settings used without a configuration file.
func DefaultConfig() *Config {
	n := gen.DefaultNaming()
	return &Config{
		Naming: NamingConfig{
			Owned:       n.OwnedSuffix,
			Shared:      n.SharedSuffix,
			Exclusive:   n.ExclusiveSuffix,
			SplitPrefix: n.SplitPrefix,
			RefSuffix:   n.RefSuffix,
			MutSuffix:   n.MutSuffix,
			WithPrefix:  n.WithPrefix,
		},
		Output: OutputConfig{
			FileSuffix:    codegen.DefaultFileSuffix,
			RuntimeImport: gen.DefaultRuntimeImport,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Lang: "en",
	}
}

// Load reads the YAML file at path over the defaults, then applies the
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies SUMSPLIT_LOG_LEVEL, SUMSPLIT_LANG and
// SUMSPLIT_CONCURRENCY.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SUMSPLIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SUMSPLIT_LANG"); v != "" {
		c.Lang = v
	}
	if v := os.Getenv("SUMSPLIT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SUMSPLIT_CONCURRENCY %q: %w", v, err)
		}
		c.Concurrency = n
	}
	return nil
}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.GenNaming().Validate(); err != nil {
		return fmt.Errorf("invalid naming: %w", err)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative: %d", c.Concurrency)
	}
	if c.Output.FileSuffix != "" && !strings.HasSuffix(c.Output.FileSuffix, ".go") {
		return fmt.Errorf("output file suffix %q must end in .go", c.Output.FileSuffix)
	}
	if strings.HasSuffix(c.Output.FileSuffix, "_test.go") {
		return fmt.Errorf("output file suffix %q would produce test files", c.Output.FileSuffix)
	}
	validLevel := false
	for _, l := range ValidLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: console, json)", c.Logging.Format)
	}
	switch c.Lang {
	case "en", "ja":
	default:
		return fmt.Errorf("unsupported language: %s (valid: en, ja)", c.Lang)
	}
	return nil
}

// GenNaming converts the naming section for the renderer.
func (c *Config) GenNaming() gen.Naming {
	return gen.Naming{
		OwnedSuffix:     c.Naming.Owned,
		SharedSuffix:    c.Naming.Shared,
		ExclusiveSuffix: c.Naming.Exclusive,
		SplitPrefix:     c.Naming.SplitPrefix,
		RefSuffix:       c.Naming.RefSuffix,
		MutSuffix:       c.Naming.MutSuffix,
		WithPrefix:      c.Naming.WithPrefix,
	}
}

// CodegenOptions returns the generator options described by c. The logger is
// left for the caller.
func (c *Config) CodegenOptions() codegen.Options {
	return codegen.Options{
		Naming:        c.GenNaming(),
		RuntimeImport: c.Output.RuntimeImport,
		Concurrency:   c.Concurrency,
		FileSuffix:    c.Output.FileSuffix,
	}
}
