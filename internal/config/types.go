// Package config loads fuzzrule configuration from defaults, a YAML file,
// FUZZRULE_ environment variables and command-line flags.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/lint"
)

// Config holds all CLI configuration options.
type Config struct {
	Program      string                   `koanf:"program"`
	Facts        map[string]float64       `koanf:"facts"`
	FactsFile    string                   `koanf:"facts_file"`
	StatePath    string                   `koanf:"state_path"`
	Record       bool                     `koanf:"record"`
	OutputFormat string                   `koanf:"output"`
	Verbose      bool                     `koanf:"verbose"`
	LogLevel     string                   `koanf:"log_level"`
	Profile      string                   `koanf:"profile"`
	Profiles     map[string]ProfileConfig `koanf:"profiles"`
	Lint         LintConfig               `koanf:"lint"`

	// ConfigFile is the config file that was loaded, empty if none.
	ConfigFile string `koanf:"-"`
}

// ProfileConfig holds profile-specific overrides. Facts are merged over the
// base facts; the other fields replace the base value when set.
type ProfileConfig struct {
	Program   string             `koanf:"program"`
	FactsFile string             `koanf:"facts_file"`
	Facts     map[string]float64 `koanf:"facts"`
}

// LintConfig configures the lint command.
type LintConfig struct {
	Disabled []string          `koanf:"disabled"`
	Severity map[string]string `koanf:"severity"` // rule ID -> error|warning|info|hint
}

// Analyzer returns the lint configuration for the analyzer.
func (l LintConfig) Analyzer() (*lint.Config, error) {
	cfg := lint.NewConfig()
	cfg.Disable(l.Disabled...)
	for id, name := range l.Severity {
		sev, ok := lint.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("invalid severity %q for lint rule %s, expected one of: error, warning, info, hint", name, id)
		}
		cfg.SetSeverity(id, sev)
	}
	return cfg, nil
}

// Config file names, in lookup order.
const (
	ConfigFileName    = "fuzzrule.yaml"
	ConfigFileNameAlt = "fuzzrule.yml"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "FUZZRULE_"

// Default configuration values.
const (
	DefaultStateFile = ".fuzzrule/history.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = "warn"
)

var (
	outputFormats = []string{"auto", "text", "markdown", "json"}
	logLevels     = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// Default returns a configuration holding only default values.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Facts:        map[string]float64{},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q, expected one of: %s", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid log level %q, expected one of: debug, info, warn, error", c.LogLevel)
	}
	if c.Record && c.StatePath == "" {
		return fmt.Errorf("state_path is required when record is enabled")
	}
	if _, err := c.Lint.Analyzer(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel. Verbose lowers it to debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	if lvl, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelWarn
}

// ProfileNames returns the configured profile names.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// loggerKey is used to store the logger in a context.
type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or defaults.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*Config); ok {
			return c
		}
	}
	return Default()
}
