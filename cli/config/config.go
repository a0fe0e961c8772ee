package config

import (
	"fmt"
	"time"
)

// Config represents a chisel.yaml configuration file.
// All values are optional and act as defaults for chisel flags.
// CLI flags always override config values.
type Config struct {
	// Grammar is the path to the grammar artifact.
	Grammar string `yaml:"grammar"`
	// Samples is the corpus root directory.
	Samples string `yaml:"samples"`
	// Pattern is the glob selecting sample files under the corpus root.
	Pattern string `yaml:"pattern"`
	// Registry is the path of the registry file.
	Registry string `yaml:"registry"`
	// Report is the default path for the JSON run report.
	Report string `yaml:"report"`

	// Workers is the validation parallelism for full runs.
	Workers int `yaml:"workers"`
	// SampleTimeout bounds a single sample's parse.
	SampleTimeout Duration `yaml:"sample_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// NoColor disables ANSI styling in terminal output.
	NoColor bool `yaml:"no_color"`
}

// Default paths used when neither flag nor config file provides a value.
const (
	DefaultGrammar  = "grammars/realtest.llx"
	DefaultSamples  = "samples"
	DefaultRegistry = ".chisel/registry.json"
)

// Defaults returns a Config populated with the built-in defaults.
func Defaults() *Config {
	return &Config{
		Grammar:  DefaultGrammar,
		Samples:  DefaultSamples,
		Registry: DefaultRegistry,
		LogLevel: "info",
	}
}

// Merge fills zero-valued fields of c from other. Used to layer the config
// file under built-in defaults.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if c.Grammar == "" {
		c.Grammar = other.Grammar
	}
	if c.Samples == "" {
		c.Samples = other.Samples
	}
	if c.Pattern == "" {
		c.Pattern = other.Pattern
	}
	if c.Registry == "" {
		c.Registry = other.Registry
	}
	if c.Report == "" {
		c.Report = other.Report
	}
	if c.Workers == 0 {
		c.Workers = other.Workers
	}
	if c.SampleTimeout.Duration == 0 {
		c.SampleTimeout = other.SampleTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = other.LogLevel
	}
	if !c.NoColor {
		c.NoColor = other.NoColor
	}
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
