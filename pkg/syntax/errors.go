package syntax

import (
	"fmt"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// SyntaxError reports malformed source text. It is produced by the parser,
// never by the semantic compiler.
//
//nolint:revive // SyntaxError reads better than Error at call sites
type SyntaxError struct {
	Pos     token.Position
	Token   string // offending token text
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d near %q: %s", e.Pos.Line, e.Pos.Column, e.Token, e.Message)
}

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrInvalidNumber      = "invalid number literal"
	ErrIllegalCharacter   = "illegal character"
	ErrUnknownShape       = "unknown set shape %q, expected S, Z or P"
)
