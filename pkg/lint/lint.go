// Package lint reports suspicious but valid constructs in rule programs:
// variables and sets no rule reads, rules no ruleset runs, executors whose
// result is discarded and the like.
//
// Rules are data-driven RuleDef values registered in a global registry and
// run over a Program index built from the syntax tree, so programs with
// semantic errors can still be linted.
package lint

import (
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// Severity ranks a finding. Lower values are more severe.
type Severity int

// Severity levels, most severe first.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

var severityNames = [...]string{"error", "warning", "info", "hint"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity maps a severity name, in any case, to its level. Unknown
// names yield SeverityWarning and false.
func ParseSeverity(name string) (Severity, bool) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), true
		}
	}
	return SeverityWarning, false
}

// RuleDef describes one lint rule. Check must not keep state between calls.
type RuleDef struct {
	ID          string // "FZ01"
	Name        string // "unused-variable"
	Description string
	Severity    Severity // used unless the Config overrides it
	Check       CheckFunc
}

// CheckFunc inspects prog and returns its findings. RuleID and Severity
// are filled in by the Analyzer.
type CheckFunc func(prog *Program) []Diagnostic

// Diagnostic is one finding, positioned at the offending declaration.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Message  string
	Pos      token.Position
}
