package domain_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fuzzrule/internal/testutil"
	"github.com/leapstack-labs/fuzzrule/pkg/compiler"
	"github.com/leapstack-labs/fuzzrule/pkg/domain"
	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waterSource(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "water.fz"))
	require.NoError(t, err)
	return string(data)
}

func newDomain(t *testing.T, opts ...domain.Option) *domain.Domain {
	t.Helper()
	opts = append([]domain.Option{domain.WithLogger(testutil.NewTestLogger(t))}, opts...)
	return domain.New(opts...)
}

func TestDomainWaterScenario(t *testing.T) {
	d := newDomain(t)
	require.NoError(t, d.CompileSource(waterSource(t)))

	require.NoError(t, d.Ground("water", 10))
	assert.InDelta(t, 50.0, d.Execute(), 1e-9)
	assert.InDelta(t, 50.0, d.Result, 1e-9)
}

func TestDomainRepeatedExecutionKeepsWeights(t *testing.T) {
	d := newDomain(t)
	require.NoError(t, d.CompileSource(waterSource(t)))

	require.NoError(t, d.Ground("water", 10))
	first := d.Execute()
	second := d.Execute()
	assert.InDelta(t, 50.0, first, 1e-9)
	assert.InDelta(t, first, second, 1e-9)

	// water=60 gives low a membership of 0, but half still holds the
	// weight written by the previous execution
	require.NoError(t, d.Ground("water", 60))
	assert.InDelta(t, 50.0, d.Execute(), 1e-9)

	d.ResetWeights()
	assert.Equal(t, 0.0, d.Execute())
}

func TestDomainGround(t *testing.T) {
	d := newDomain(t)
	err := d.Ground("water", 1)
	require.ErrorIs(t, err, domain.ErrNotCompiled)
	var empty *fuzzy.UndefinedVariableError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, "water", empty.Name)

	require.NoError(t, d.CompileSource(waterSource(t)))
	err = d.Ground("pressure", 1)

	var uv *fuzzy.UndefinedVariableError
	require.True(t, errors.As(err, &uv))
	assert.Equal(t, "pressure", uv.Name)
}

func TestDomainCompileFailureKeepsPreviousModel(t *testing.T) {
	d := newDomain(t)
	require.NoError(t, d.CompileSource(waterSource(t)))
	require.NoError(t, d.Ground("water", 10))
	require.InDelta(t, 50.0, d.Execute(), 1e-9)
	before := d.Model()

	err := d.CompileSource("fuzzyvar broken range (5, 1) { S a (0, 1); }")
	var ce *compiler.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, compiler.KindInvalidRange, ce.Kind)

	assert.Same(t, before, d.Model())
	assert.InDelta(t, 50.0, d.Result, 1e-9)
	assert.InDelta(t, 50.0, d.Execute(), 1e-9)
}

func TestDomainSyntaxErrorIsDistinct(t *testing.T) {
	d := newDomain(t)
	err := d.CompileSource("fuzzyvar water {\n  S low (0, 50)\n}")

	var se *syntax.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Pos.Line)

	var ce *compiler.CompileError
	assert.False(t, errors.As(err, &ce))
	assert.False(t, d.Compiled())
	assert.Nil(t, d.Model())
}

func TestDomainRecompileResetsResult(t *testing.T) {
	d := newDomain(t)
	require.NoError(t, d.CompileSource(waterSource(t)))
	require.NoError(t, d.Ground("water", 10))
	d.Execute()
	before := d.Model()

	require.NoError(t, d.CompileSource(waterSource(t)))
	assert.Equal(t, 0.0, d.Result)
	assert.NotSame(t, before, d.Model())

	power, ok := d.Model().Variable("power")
	require.True(t, ok)
	assert.Equal(t, 0.0, power.WeightSum())
}

func TestDomainWithoutExecutorsKeepsResult(t *testing.T) {
	d := newDomain(t)
	assert.Equal(t, 0.0, d.Execute())

	require.NoError(t, d.CompileSource(`
fuzzyvar water { S low (0, 50); }
fuzzyvar power { P half (0, 50, 100); }
rule fill when water is low then power is half;
ruleset pump { all }
`))
	require.NoError(t, d.Ground("water", 10))
	assert.Equal(t, 0.0, d.Execute())
	require.Len(t, d.Model().Executors(), 0)
}

func TestDomainTrace(t *testing.T) {
	trace := domain.NewTrace()
	d := newDomain(t, domain.WithHooks(trace.Hooks()))
	require.NoError(t, d.CompileSource(waterSource(t)))
	require.NoError(t, d.Ground("water", 10))
	d.Execute()

	require.Len(t, trace.Firings, 1)
	f := trace.Firings[0]
	assert.Equal(t, "pump", f.Ruleset)
	assert.Equal(t, "fill", f.Rule)
	assert.Equal(t, "power", f.Variable)
	assert.Equal(t, "half", f.Set)
	assert.True(t, f.Applied)
	assert.InDelta(t, 0.8, f.Strength, 1e-9)

	require.Len(t, trace.Results, 1)
	assert.Equal(t, "pump", trace.Results[0].Ruleset)
	assert.InDelta(t, 50.0, trace.Results[0].Result, 1e-9)

	trace.Reset()
	require.NoError(t, d.Ground("water", 80))
	d.Execute()
	require.Len(t, trace.Firings, 1)
	assert.False(t, trace.Firings[0].Applied)
}
