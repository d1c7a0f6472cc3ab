// Package config provides the YAML configuration schema and loader for the
// propsail command-line tool.
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure, loaded from a YAML file with
// [Load] or [LoadFromReader].
type Config struct {
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects and parameterizes the backing graph and the store
// policies.
type StoreConfig struct {
	// Engine selects the backing graph. Valid values: "memory", "badger".
	Engine string `yaml:"engine"`

	// Path is the on-disk location for the badger engine. Ignored by the
	// memory engine.
	Path string `yaml:"path"`

	// IndexedPatterns is the comma-separated indexed-pattern configuration,
	// e.g. "p,c,pc". "p" and "c" are always enabled.
	IndexedPatterns string `yaml:"indexed_patterns"`

	// UniqueStatements suppresses duplicate quads. Defaults to true when
	// omitted.
	UniqueStatements *bool `yaml:"unique_statements"`

	// VolatileStatements enables statement-buffer reuse in iterators.
	VolatileStatements bool `yaml:"volatile_statements"`
}

// LogConfig controls logging verbosity.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// Unique returns the effective unique-statements flag.
func (s StoreConfig) Unique() bool {
	return s.UniqueStatements == nil || *s.UniqueStatements
}

// Load reads the YAML configuration file at path and returns a validated
// [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when fields are omitted.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Engine:          "badger",
			Path:            "./propsail_data",
			IndexedPatterns: "p,c,pc",
		},
		Log: LogConfig{Level: "info"},
	}
}

var patternRe = regexp.MustCompile(`^s?p?o?c?$`)

// Validate checks engine, log level, and the indexed-pattern syntax.
func (c *Config) Validate() error {
	switch c.Store.Engine {
	case "memory", "badger":
	default:
		return fmt.Errorf("config: unknown store engine %q", c.Store.Engine)
	}
	if c.Store.Engine == "badger" && c.Store.Path == "" {
		return fmt.Errorf("config: badger engine requires store.path")
	}
	for _, part := range strings.Split(c.Store.IndexedPatterns, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !patternRe.MatchString(part) {
			return fmt.Errorf("config: invalid indexed pattern %q", part)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}
