package commands

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, _, err := executeCommand(t, NewVersionCommand("1.2.3"), testConfig(output.ModeText))
		require.NoError(t, err)
		assert.Contains(t, out, "fuzzrule v1.2.3")
		assert.Contains(t, out, "inference engine")
		assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := executeCommand(t, NewVersionCommand("1.2.3"), testConfig(output.ModeJSON))
		require.NoError(t, err)

		var got output.VersionOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "1.2.3", got.Version)
		assert.Equal(t, runtime.Version(), got.GoVersion)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, _, err := executeCommand(t, NewVersionCommand("1.2.3"), testConfig(output.ModeText), "extra")
		assert.Error(t, err)
	})
}
