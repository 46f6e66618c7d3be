package compiler

import (
	"errors"
	"fmt"
)

// Kind classifies a CompileError.
type Kind int

// Compile error kinds.
const (
	KindMalformedTree Kind = iota
	KindInvalidRange
	KindInvalidSet
	KindMissingParameter
	KindRangeMismatch
	KindInvalidCertainty
	KindInvalidPriority
	KindInvalidWeight
	KindUndefinedVariable
	KindUndefinedSet
	KindUndefinedRule
	KindUndefinedRuleset
	KindDuplicateName
)

var kindNames = map[Kind]string{
	KindMalformedTree:     "malformed tree",
	KindInvalidRange:      "invalid range",
	KindInvalidSet:        "invalid set",
	KindMissingParameter:  "missing parameter",
	KindRangeMismatch:     "range mismatch",
	KindInvalidCertainty:  "invalid certainty",
	KindInvalidPriority:   "invalid priority",
	KindInvalidWeight:     "invalid weight",
	KindUndefinedVariable: "undefined variable",
	KindUndefinedSet:      "undefined set",
	KindUndefinedRule:     "undefined rule",
	KindUndefinedRuleset:  "undefined ruleset",
	KindDuplicateName:     "duplicate name",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// CompileError reports a semantic violation in a syntax tree. Compilation
// stops at the first one.
type CompileError struct {
	Kind    Kind
	Subject string // variable, rule or ruleset being compiled
	Line    int    // 1-based source line, 0 if unknown
	Message string
	Err     error // underlying constructor error, if any
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("compile error: %s", e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *CompileError of kind k.
func IsKind(err error, k Kind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == k
}
