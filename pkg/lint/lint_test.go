package lint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/leapstack-labs/fuzzrule/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vars = `fuzzyvar water range (0, 100) {
    S low (0, 50);
    Z high (50, 100);
}
fuzzyvar power range (0, 100) {
    P half (0, 50, 100);
}
`

func analyze(t *testing.T, src string, cfg *lint.Config) []lint.Diagnostic {
	t.Helper()
	tree, err := parser.Parse(src)
	require.NoError(t, err)
	return lint.NewAnalyzer(cfg).Analyze(tree)
}

func ruleIDs(diags []lint.Diagnostic) []string {
	ids := make([]string, 0, len(diags))
	for _, d := range diags {
		ids = append(ids, d.RuleID)
	}
	return ids
}

func TestRegistry(t *testing.T) {
	all := lint.Rules()
	require.Len(t, all, 7)
	assert.Equal(t, "FZ01", all[0].ID)
	assert.Equal(t, "FZ07", all[6].ID)

	rule, ok := lint.Lookup("fz03")
	require.True(t, ok)
	assert.Equal(t, "orphan-rule", rule.Name)

	_, ok = lint.Lookup("XX99")
	assert.False(t, ok)
}

func TestWaterFixtureOnlyUnusedSets(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "water.fz"))
	require.NoError(t, err)

	diags := analyze(t, string(data), nil)
	for _, d := range diags {
		assert.Equal(t, "FZ02", d.RuleID, d.Message)
		assert.Equal(t, lint.SeverityHint, d.Severity)
	}
	assert.Len(t, diags, 4)
}

func TestRules(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		ruleID  string
		message string
		line    int
	}{
		{
			name:    "unused variable",
			src:     vars + "fuzzyvar flow range (0, 1) { P mid (0, 0.5, 1); }\nrule r when water is low then power is half;\nruleset rs { all }\nexecute rs;",
			ruleID:  "FZ01",
			message: "variable flow is not used by any rule",
			line:    8,
		},
		{
			name:    "unused set",
			src:     vars + "rule r when water is low then power is half;\nruleset rs { all }\nexecute rs;",
			ruleID:  "FZ02",
			message: "set high of variable water is not used by any rule",
			line:    3,
		},
		{
			name:    "rule after all ruleset",
			src:     vars + "ruleset rs { all }\nrule r when water is low then power is half;\nexecute rs;",
			ruleID:  "FZ03",
			message: "rule r is not part of any ruleset",
			line:    9,
		},
		{
			name:    "unexecuted ruleset",
			src:     vars + "rule r when water is low then power is half;\nruleset a { all }\nruleset b { r }\nexecute a;",
			ruleID:  "FZ04",
			message: "ruleset b is never executed",
			line:    10,
		},
		{
			name:    "ruleset shadowed in execute",
			src:     vars + "rule r when water is low then power is half;\nruleset a { all }\nruleset b { r }\nexecute a, b;",
			ruleID:  "FZ04",
			message: "ruleset b is named after a in execute and never runs",
			line:    10,
		},
		{
			name:    "discarded executor",
			src:     vars + "rule r when water is low then power is half;\nruleset a { all }\nexecute a;\nexecute a;",
			ruleID:  "FZ05",
			message: "result of execute a is replaced by execute a at line 11",
			line:    10,
		},
		{
			name:    "ignored attribute",
			src:     vars + "rule r priority 3 when water is low then power is half;\nruleset a { all }\nexecute a;",
			ruleID:  "FZ06",
			message: "priority 3 of rule r has no effect on inference",
			line:    8,
		},
		{
			name:    "no executor",
			src:     vars + "rule r when water is low then power is half;\nruleset a { r }",
			ruleID:  "FZ07",
			message: "program has no execute statement",
			line:    8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := analyze(t, tt.src, nil)

			var found *lint.Diagnostic
			for i := range diags {
				if diags[i].RuleID == tt.ruleID {
					found = &diags[i]
					break
				}
			}
			require.NotNil(t, found, "no %s diagnostic in %v", tt.ruleID, ruleIDs(diags))
			assert.Contains(t, found.Message, tt.message)
			assert.Equal(t, tt.line, found.Pos.Line)
		})
	}
}

func TestNamedRulesetCoversRule(t *testing.T) {
	src := vars + "ruleset rs { all }\nrule r when water is low then power is half;\nruleset named { r }\nexecute rs, named;"
	assert.NotContains(t, ruleIDs(analyze(t, src, nil)), "FZ03")
}

func TestRulesetFirstInAnyExecuteRuns(t *testing.T) {
	src := vars + "rule r when water is low then power is half;\nruleset a { all }\nruleset b { r }\nexecute a, b;\nexecute b, a;"
	assert.NotContains(t, ruleIDs(analyze(t, src, nil)), "FZ04")
}

func TestConfig(t *testing.T) {
	src := vars + "rule r certainty 0.5 when water is low then power is half;\nruleset a { all }\nruleset b { r }\nexecute a;"

	cfg := lint.NewConfig().Disable("FZ02").SetSeverity("FZ04", lint.SeverityError)
	diags := analyze(t, src, cfg)

	assert.Equal(t, []string{"FZ06", "FZ04"}, ruleIDs(diags))
	assert.Equal(t, lint.SeverityError, diags[1].Severity)
}

func TestConfigLookup(t *testing.T) {
	cfg := lint.NewConfig().Disable(" fz01 ", "FZ99").SetSeverity("fz05", lint.SeverityInfo)

	assert.False(t, cfg.Enabled("FZ01"))
	assert.True(t, cfg.Enabled("FZ02"))
	assert.Equal(t, lint.SeverityInfo, cfg.SeverityFor("FZ05", lint.SeverityWarning))
	assert.Equal(t, lint.SeverityHint, cfg.SeverityFor("FZ02", lint.SeverityHint))
	assert.Equal(t, []string{"FZ99"}, cfg.Unknown())

	var unset *lint.Config
	assert.True(t, unset.Enabled("FZ01"))
	assert.Empty(t, unset.Unknown())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		lint.Register(lint.RuleDef{ID: "fz01", Check: func(*lint.Program) []lint.Diagnostic { return nil }})
	})
	assert.Panics(t, func() { lint.Register(lint.RuleDef{ID: "FZ90"}) })
}

func TestAnalyzeNilTree(t *testing.T) {
	assert.Nil(t, lint.NewAnalyzer(nil).Analyze(nil))
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want lint.Severity
		ok   bool
	}{
		{"error", lint.SeverityError, true},
		{"WARNING", lint.SeverityWarning, true},
		{"info", lint.SeverityInfo, true},
		{"hint", lint.SeverityHint, true},
		{"loud", lint.SeverityWarning, false},
	}
	for _, tt := range tests {
		got, ok := lint.ParseSeverity(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "warning", lint.SeverityWarning.String())
	assert.Equal(t, "unknown", lint.Severity(9).String())
}
