// Package token defines the lexical tokens of the fuzzy rule language.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // water, low, fill_rule
	NUMBER // 10, -2.5, 1e3
	STRING // "tank level"

	// Punctuation
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }

	// Keywords (alphabetical)
	ALL
	AND
	CERTAINTY
	DESC
	EXECUTE
	FUZZYVAR
	IS
	OR
	PRIORITY
	RANGE
	RULE
	RULESET
	THEN
	WEIGHT
	WHEN
)

var names = [...]string{
	EOF:       "EOF",
	ILLEGAL:   "ILLEGAL",
	IDENT:     "IDENT",
	NUMBER:    "NUMBER",
	STRING:    "STRING",
	COMMA:     ",",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	ALL:       "ALL",
	AND:       "AND",
	CERTAINTY: "CERTAINTY",
	DESC:      "DESC",
	EXECUTE:   "EXECUTE",
	FUZZYVAR:  "FUZZYVAR",
	IS:        "IS",
	OR:        "OR",
	PRIORITY:  "PRIORITY",
	RANGE:     "RANGE",
	RULE:      "RULE",
	RULESET:   "RULESET",
	THEN:      "THEN",
	WEIGHT:    "WEIGHT",
	WHEN:      "WHEN",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsKeyword reports whether t is a reserved word.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t <= WHEN
}

// keywords is keyed by the lowercase spelling.
var keywords = func() map[string]TokenType {
	m := make(map[string]TokenType, WHEN-ALL+1)
	for t := ALL; t <= WHEN; t++ {
		m[strings.ToLower(names[t])] = t
	}
	return m
}()

// LookupIdent classifies a lowercase word as a keyword or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words in lowercase, alphabetically.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for t := ALL; t <= WHEN; t++ {
		words = append(words, strings.ToLower(names[t]))
	}
	return words
}

// Token is one scanned token. Literal keeps the source spelling.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

// String renders t the way syntax errors quote it.
func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "<EOF>"
	case STRING:
		return fmt.Sprintf("%q", t.Literal)
	default:
		return t.Literal
	}
}
