// Package testutil holds fixtures and assertions for command tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WaterProgram is a pump controller program. Grounding water to 10 and
// executing yields 50.
const WaterProgram = `fuzzyvar water range (0, 100) desc "tank level" {
    S low (0, 50);
    P medium (0, 50, 100);
    Z high (50, 100);
}
fuzzyvar power range (0, 100) {
    S off (0, 50);
    P half (0, 50, 100);
    Z full (50, 100);
}
rule fill when water is low then power is half;
ruleset pump { all }
execute pump;
`

// BrokenProgram fails to compile because the rule names an unknown set.
const BrokenProgram = `fuzzyvar water range (0, 100) {
    P medium (0, 50, 100);
}
rule fill when water is empty then water is medium;
`

// WriteProgram writes src to name inside dir and returns the full path.
func WriteProgram(t *testing.T, dir, name, src string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

// SetupTestProject creates a temporary directory holding water.fz and
// broken.fz and returns the directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	WriteProgram(t, dir, "water.fz", WaterProgram)
	WriteProgram(t, dir, "broken.fz", BrokenProgram)
	return dir
}

// TestRenderer is a non-TTY Renderer writing into buffers, so styles
// render as plain text.
type TestRenderer struct {
	*output.Renderer
	out, errOut bytes.Buffer
}

// NewTestRenderer returns a TestRenderer in the given mode.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	tr := &TestRenderer{}
	tr.Renderer = output.NewRendererWithTTY(&tr.out, &tr.errOut, false, mode)
	return tr
}

// Output returns everything written to standard output so far.
func (tr *TestRenderer) Output() string { return tr.out.String() }

// ErrorOutput returns everything written to error output so far.
func (tr *TestRenderer) ErrorOutput() string { return tr.errOut.String() }

var escapeSequence = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails t when s carries terminal escape sequences.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if loc := escapeSequence.FindStringIndex(s); loc != nil {
		assert.Fail(t, "unexpected ANSI escape", "at byte %d of %q", loc[0], s)
	}
}

// AssertValidMarkdown checks that code fences are balanced and that no
// heading is empty.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	inFence := false
	for i, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "```"):
			inFence = !inFence
		case !inFence && strings.HasPrefix(line, "#"):
			assert.NotEmpty(t, strings.Trim(line, "# "), "empty heading on line %d", i+1)
		}
	}
	assert.False(t, inFence, "unterminated code fence")
}
