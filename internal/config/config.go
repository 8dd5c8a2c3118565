// Package config loads the tsgroups configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sanonone/tsgroups/pkg/fit"
)

// Config is the top-level configuration.
type Config struct {
	// DatabaseDir holds one directory per reaction family.
	DatabaseDir string `yaml:"database_dir"`
	// Families fitted when none are named on the command line.
	Families []string `yaml:"families"`

	RCond      float64 `yaml:"rcond"`      // 0 = automatic
	Confidence float64 `yaml:"confidence"` // Student's t quantile
	MinCount   int     `yaml:"min_count"`  // minimum support for an uncertainty

	// Snapshot writes groups.snap next to groups.yaml after each fit.
	Snapshot bool `yaml:"snapshot"`
	// Journal appends a record of each fit to runs.journal.
	Journal bool `yaml:"journal"`

	LogLevel    string `yaml:"log_level"`    // debug, info, warn, error
	MetricsAddr string `yaml:"metrics_addr"` // empty disables /metrics
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		DatabaseDir: "database",
		Confidence:  0.975,
		MinCount:    3,
		Snapshot:    false,
		Journal:     true,
		LogLevel:    "info",
	}
}

// LoadConfig reads the YAML configuration file using strict parsing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig() // Start with defaults

	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.RCond < 0 || c.RCond >= 1 {
		return fmt.Errorf("rcond must be in [0, 1), got %g", c.RCond)
	}
	if c.Confidence <= 0.5 || c.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0.5, 1), got %g", c.Confidence)
	}
	if c.MinCount < 2 {
		return fmt.Errorf("min_count must be at least 2, got %d", c.MinCount)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// FitOptions returns the fit settings for a family.
func (c Config) FitOptions(family string) fit.Options {
	opts := fit.DefaultOptions(family)
	opts.RCond = c.RCond
	opts.Confidence = c.Confidence
	opts.MinCount = c.MinCount
	return opts
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}
