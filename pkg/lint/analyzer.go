package lint

import (
	"cmp"
	"slices"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// Analyzer runs the registered lint rules against syntax trees.
type Analyzer struct {
	config *Config
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// Analyze runs every enabled rule against tree. Diagnostics are ordered by
// position, then rule ID.
func (a *Analyzer) Analyze(tree *syntax.Node) []Diagnostic {
	if tree == nil {
		return nil
	}
	prog := NewProgram(tree)

	var diagnostics []Diagnostic
	for _, rule := range Rules() {
		if !a.config.Enabled(rule.ID) {
			continue
		}
		diags := rule.Check(prog)
		for i := range diags {
			diags[i].RuleID = rule.ID
			diags[i].Severity = a.config.SeverityFor(rule.ID, rule.Severity)
		}
		diagnostics = append(diagnostics, diags...)
	}

	slices.SortStableFunc(diagnostics, func(a, b Diagnostic) int {
		return cmp.Or(a.Pos.Compare(b.Pos), strings.Compare(a.RuleID, b.RuleID))
	})
	return diagnostics
}
