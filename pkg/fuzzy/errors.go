package fuzzy

import (
	"errors"
	"fmt"
)

// Constructor invariant violations. The compiler maps each one to a
// CompileError kind.
var (
	ErrInvalidRange    = errors.New("invalid range")
	ErrInvalidShape    = errors.New("invalid set shape")
	ErrDuplicateSet    = errors.New("duplicate fuzzy set")
	ErrForeignSet      = errors.New("fuzzy set does not belong to variable")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrMalformedRule   = errors.New("malformed rule")
	ErrUnknownOperator = errors.New("unknown operator")
)

// UndefinedVariableError is returned when grounding a variable that was
// never declared.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable: %s", e.Name)
}
