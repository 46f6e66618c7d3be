package domain

import "github.com/leapstack-labs/fuzzrule/pkg/fuzzy"

// Firing records one rule evaluation.
type Firing struct {
	Ruleset  string
	Rule     string
	Strength float64
	Applied  bool // strength was written onto the consequent set
	Variable string
	Set      string
}

// RulesetResult records the value a ruleset returned.
type RulesetResult struct {
	Ruleset string
	Result  float64
}

// Trace collects firings across executions. Install it with
// WithHooks(trace.Hooks()).
type Trace struct {
	Firings []Firing
	Results []RulesetResult

	current []Firing
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Hooks returns observers that append to the trace.
func (t *Trace) Hooks() *fuzzy.Hooks {
	return &fuzzy.Hooks{
		OnRuleFired: func(r *fuzzy.Rule, strength float64, applied bool) {
			t.current = append(t.current, Firing{
				Rule:     r.Name,
				Strength: strength,
				Applied:  applied,
				Variable: r.Consequent.Variable.Name,
				Set:      r.Consequent.Set.Name(),
			})
		},
		OnRulesetExecuted: func(rs *fuzzy.Ruleset, result float64) {
			for i := range t.current {
				t.current[i].Ruleset = rs.Name
			}
			t.Firings = append(t.Firings, t.current...)
			t.current = t.current[:0]
			t.Results = append(t.Results, RulesetResult{Ruleset: rs.Name, Result: result})
		},
	}
}

// Reset discards everything recorded so far.
func (t *Trace) Reset() {
	t.Firings = nil
	t.Results = nil
	t.current = nil
}
