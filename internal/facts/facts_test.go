package facts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Facts
		errSubstr string
		errLine   int
	}{
		{
			name:  "ints and floats",
			input: "water: 10\ntemp: -2.5\nflow: 1e2\n",
			want:  Facts{"water": 10, "temp": -2.5, "flow": 100},
		},
		{
			name:  "empty document",
			input: "",
			want:  Facts{},
		},
		{
			name:  "comment only",
			input: "# nothing yet\n",
			want:  Facts{},
		},
		{
			name:      "string value",
			input:     "water: 10\ntemp: warm\n",
			errSubstr: `expected a number, got "warm"`,
			errLine:   2,
		},
		{
			name:      "quoted number",
			input:     "water: \"10\"\n",
			errSubstr: `expected a number, got "10"`,
			errLine:   1,
		},
		{
			name:      "bool value",
			input:     "water: true\n",
			errSubstr: "expected a number",
			errLine:   1,
		},
		{
			name:      "nested mapping",
			input:     "water:\n  level: 3\n",
			errSubstr: "expected a number, got a mapping",
			errLine:   2,
		},
		{
			name:      "not finite",
			input:     "water: .inf\n",
			errSubstr: "not finite",
			errLine:   1,
		},
		{
			name:      "duplicate",
			input:     "water: 1\nwater: 2\n",
			errSubstr: "declared twice",
		},
		{
			name:      "sequence root",
			input:     "- 1\n- 2\n",
			errSubstr: "facts must be a mapping of names to numbers, got a sequence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input))
			if tt.errSubstr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
			if tt.errLine > 0 {
				var fe *FactError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, tt.errLine, fe.Line)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("water: 10\n"), 0600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Facts{"water": 10}, f)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read facts file")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		input   string
		name    string
		value   float64
		wantErr bool
	}{
		{input: "water=10", name: "water", value: 10},
		{input: " water = 2.5 ", name: "water", value: 2.5},
		{input: "temp=-3", name: "temp", value: -3},
		{input: "water", wantErr: true},
		{input: "=10", wantErr: true},
		{input: "water=", wantErr: true},
		{input: "water=high", wantErr: true},
		{input: "water=NaN", wantErr: true},
		{input: "water=+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, value, err := ParseAssignment(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	f, err := ParseAssignments([]string{"water=10", "temp=3", "water=20"})
	require.NoError(t, err)
	assert.Equal(t, Facts{"water": 20, "temp": 3}, f)

	_, err = ParseAssignments([]string{"water=10", "bad"})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	file := Facts{"water": 1, "temp": 1}
	cfg := map[string]float64{"water": 2}
	flags := Facts{"flow": 3}

	got := Merge(file, cfg, nil, flags)
	assert.Equal(t, Facts{"water": 2, "temp": 1, "flow": 3}, got)
	assert.Equal(t, []string{"flow", "temp", "water"}, got.Names())
	assert.Equal(t, 1.0, file["water"], "inputs are not modified")
}
