package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"state": "state_path",
	"facts": "facts_file",
}

// pathFlags are flags holding file paths, resolved against the working
// directory rather than the config file directory.
var pathFlags = []string{"state", "facts", "program"}

// findConfigFile finds the config file to use.
// Priority: explicit path > fuzzrule.yaml > fuzzrule.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute or :memory:.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"state_path": DefaultStateFile,
		"output":     DefaultOutput,
		"log_level":  DefaultLogLevel,
		"verbose":    false,
		"record":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Load environment variables (FUZZRULE_ prefix)
	// Transform: FUZZRULE_FACTS_FILE -> facts_file
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Facts == nil {
		cfg.Facts = map[string]float64{}
	}
	cfg.ConfigFile = configFile

	// 6. Apply profile overrides
	if err := cfg.applyProfile(); err != nil {
		return nil, err
	}

	// 7. Resolve relative paths from the config file against its directory;
	// paths given as flags stay relative to the working directory.
	baseDir := ""
	if configFile != "" {
		if abs, err := filepath.Abs(configFile); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}
	fromFlag := changedFlags(flags)
	if !fromFlag["program"] {
		cfg.Program = resolvePathRelativeTo(cfg.Program, baseDir)
	}
	if !fromFlag["facts"] {
		cfg.FactsFile = resolvePathRelativeTo(cfg.FactsFile, baseDir)
	}
	if !fromFlag["state"] {
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, baseDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func changedFlags(flags *pflag.FlagSet) map[string]bool {
	changed := make(map[string]bool)
	if flags == nil {
		return changed
	}
	for _, name := range pathFlags {
		if f := flags.Lookup(name); f != nil && f.Changed {
			changed[name] = true
		}
	}
	return changed
}

// applyProfile merges the selected profile over the base configuration.
func (c *Config) applyProfile() error {
	if c.Profile == "" {
		return nil
	}
	p, ok := c.Profiles[c.Profile]
	if !ok {
		names := c.ProfileNames()
		sort.Strings(names)
		if len(names) == 0 {
			return fmt.Errorf("unknown profile %q: no profiles configured", c.Profile)
		}
		return fmt.Errorf("unknown profile %q, available: %s", c.Profile, strings.Join(names, ", "))
	}

	if p.Program != "" {
		c.Program = p.Program
	}
	if p.FactsFile != "" {
		c.FactsFile = p.FactsFile
	}
	merged := make(map[string]float64, len(c.Facts)+len(p.Facts))
	maps.Copy(merged, c.Facts)
	maps.Copy(merged, p.Facts)
	c.Facts = merged
	return nil
}
