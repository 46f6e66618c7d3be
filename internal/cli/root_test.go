package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	clitestutil "github.com/leapstack-labs/fuzzrule/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"check", "run", "inspect", "fmt", "lint", "watch", "repl", "history", "lsp", "version", "completion"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "profile", "state", "facts", "verbose", "log-level", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootVersionFlag(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "fuzzrule "+Version)
}

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "bash completion"},
		{"zsh", "#compdef fuzzrule"},
		{"fish", "fish completion"},
		{"powershell", "Register-ArgumentCompleter"},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, _, err := executeRoot(t, "completion", tt.shell)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}

	_, _, err := executeRoot(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestRootRunWithConfigFile(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "fuzzrule.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`program: water.fz
facts:
  water: 90
profiles:
  empty:
    facts:
      water: 10
`), 0o600))
	t.Chdir(t.TempDir())

	out, _, err := executeRoot(t, "--config", cfgPath, "-p", "empty", "-o", "json", "run")
	require.NoError(t, err)

	var got output.RunOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, filepath.Join(dir, "water.fz"), got.Program)
	assert.InDelta(t, 50.0, got.Result, 1e-9)

	out, _, err = executeRoot(t, "--config", cfgPath, "-o", "text", "run", "--set", "water=10")
	require.NoError(t, err)
	assert.Equal(t, "Result: 50\n", out)
}

func TestRootVerbose(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	cfgPath := filepath.Join(dir, "fuzzrule.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: text\n"), 0o600))
	t.Chdir(t.TempDir())

	_, errOut, err := executeRoot(t, "--config", cfgPath, "-v", "check", filepath.Join(dir, "water.fz"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Using config file: "+cfgPath)
}

func TestRootConfigErrors(t *testing.T) {
	dir := clitestutil.SetupTestProject(t)
	water := filepath.Join(dir, "water.fz")
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid output", []string{"-o", "xml", "check", water}, "invalid output format"},
		{"invalid log level", []string{"--log-level", "loud", "check", water}, "invalid log level"},
		{"unknown profile", []string{"-p", "night", "check", water}, "unknown profile"},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.yaml"), "check", water}, "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRoot(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootHelpSkipsConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := executeRoot(t, "--config", "missing.yaml", "help", "run")
	require.NoError(t, err)
	assert.Contains(t, out, "fuzzrule run")
}
