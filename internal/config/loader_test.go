package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func rootFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state database")
	flags.String("facts", "", "facts file")
	flags.String("profile", "", "profile")
	flags.String("output", "auto", "output format")
	flags.String("log-level", "", "log level")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.Record)
	assert.Empty(t, cfg.ConfigFile)
	assert.NotNil(t, cfg.Facts)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `program: rules/pump.fz
facts:
  water: 10
  temp: 21.5
facts_file: facts.yaml
record: true
output: json
`)
	dir := filepath.Dir(path)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "rules", "pump.fz"), cfg.Program)
	assert.Equal(t, filepath.Join(dir, "facts.yaml"), cfg.FactsFile)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, map[string]float64{"water": 10, "temp": 21.5}, cfg.Facts)
	assert.True(t, cfg.Record)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte("output: markdown\n"), 0600))
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ConfigFileNameAlt, cfg.ConfigFile)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoad_FlagPrecedence(t *testing.T) {
	path := writeConfig(t, "state_path: from_file.db\n")
	t.Setenv("FUZZRULE_STATE_PATH", "from_env.db")

	flags := rootFlags()
	require.NoError(t, flags.Set("state", "/tmp/from_flag.db"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from_flag.db", cfg.StatePath, "flag value should override config file and env var")
}

func TestLoad_EnvPrecedenceOverFile(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	t.Setenv("FUZZRULE_LOG_LEVEL", "debug")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "env var should override config file")
}

func TestLoad_FlagNotSetUsesEnv(t *testing.T) {
	path := writeConfig(t, "output: text\n")
	t.Setenv("FUZZRULE_OUTPUT", "markdown")

	// flag registered but never set, so Changed is false
	cfg, err := Load(path, rootFlags())
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat, "env var should be used when flag is not set")
}

func TestLoad_KebabFlags(t *testing.T) {
	path := writeConfig(t, "")
	flags := rootFlags()
	require.NoError(t, flags.Set("log-level", "error"))
	require.NoError(t, flags.Set("facts", "relative.yaml"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "relative.yaml", cfg.FactsFile, "flag paths stay relative to the working directory")
}

func TestLoad_Profiles(t *testing.T) {
	content := `program: base.fz
facts:
  water: 10
  temp: 20
profiles:
  flood:
    facts:
      water: 95
  alt:
    program: alt.fz
    facts_file: alt.yaml
`
	tests := []struct {
		name      string
		profile   string
		program   string
		factsFile string
		facts     map[string]float64
		errSubstr string
	}{
		{
			name:    "no profile",
			program: "base.fz",
			facts:   map[string]float64{"water": 10, "temp": 20},
		},
		{
			name:    "facts merged over base",
			profile: "flood",
			program: "base.fz",
			facts:   map[string]float64{"water": 95, "temp": 20},
		},
		{
			name:      "paths replaced",
			profile:   "alt",
			program:   "alt.fz",
			factsFile: "alt.yaml",
			facts:     map[string]float64{"water": 10, "temp": 20},
		},
		{
			name:      "unknown profile",
			profile:   "drought",
			errSubstr: `unknown profile "drought", available: alt, flood`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, content)
			dir := filepath.Dir(path)
			flags := rootFlags()
			if tt.profile != "" {
				require.NoError(t, flags.Set("profile", tt.profile))
			}

			cfg, err := Load(path, flags)
			if tt.errSubstr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.program), cfg.Program)
			if tt.factsFile != "" {
				assert.Equal(t, filepath.Join(dir, tt.factsFile), cfg.FactsFile)
			}
			assert.Equal(t, tt.facts, cfg.Facts)
		})
	}
}

func TestLoad_UnknownProfileWithoutProfiles(t *testing.T) {
	path := writeConfig(t, "profile: night\n")
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no profiles configured")
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "facts: [unclosed\n")
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "uppercase log level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{
			name:      "bad output",
			mutate:    func(c *Config) { c.OutputFormat = "yaml" },
			errSubstr: `invalid output format "yaml"`,
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.LogLevel = "trace" },
			errSubstr: `invalid log level "trace"`,
		},
		{
			name: "record without state",
			mutate: func(c *Config) {
				c.Record = true
				c.StatePath = ""
			},
			errSubstr: "state_path is required",
		},
		{
			name:      "bad lint severity",
			mutate:    func(c *Config) { c.Lint.Severity = map[string]string{"FZ01": "fatal"} },
			errSubstr: `invalid severity "fatal" for lint rule FZ01`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoad_LintSection(t *testing.T) {
	path := writeConfig(t, `lint:
  disabled: [fz02]
  severity:
    FZ04: error
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fz02"}, cfg.Lint.Disabled)

	lc, err := cfg.Lint.Analyzer()
	require.NoError(t, err)
	assert.False(t, lc.Enabled("FZ02"))
	assert.Equal(t, lint.SeverityError, lc.SeverityFor("FZ04", lint.SeverityWarning))
	assert.Equal(t, lint.SeverityHint, lc.SeverityFor("FZ06", lint.SeverityHint))
}

func TestConfig_Level(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "WARN", cfg.Level().String())

	cfg.LogLevel = "info"
	assert.Equal(t, "INFO", cfg.Level().String())

	cfg.Verbose = true
	assert.Equal(t, "DEBUG", cfg.Level().String())
}
