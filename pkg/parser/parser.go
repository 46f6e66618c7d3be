// Package parser turns rule language source text into the generic syntax
// tree consumed by the semantic compiler.
//
// # Usage
//
//	tree, err := parser.Parse(src)
//	if err != nil {
//	    var se *syntax.SyntaxError
//	    errors.As(err, &se) // line, column and offending token
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser. Keywords are
// case-insensitive; # and // start line comments, /* */ delimits block
// comments.
//
//	program   → { fuzzyvar | rule | ruleset | execute } EOF
//	fuzzyvar  → FUZZYVAR ident [RANGE "(" num "," num ")"] [DESC string] "{" { setdef } "}"
//	setdef    → (S | Z | P) ident "(" num "," num ["," num] ")" ";"
//	rule      → RULE ident { CERTAINTY num | PRIORITY num | WEIGHT num | DESC string }
//	            WHEN cond { (AND | OR) cond } THEN ident IS ident ";"
//	cond      → ident IS ident
//	ruleset   → RULESET ident [DESC string] "{" (ALL | ident { "," ident }) "}"
//	execute   → EXECUTE ident { "," ident } ";"
//
// The parser checks syntax only. Whether a P set has its third parameter,
// whether a referenced variable exists and similar questions belong to the
// compiler.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// Parser parses rule language source into a syntax tree.
type Parser struct {
	lexer  *Lexer
	token  token.Token // current token
	peek   token.Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given input.
func NewParser(src string) *Parser {
	p := &Parser{
		lexer: NewLexer(src),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses src and returns the PROGRAM node. Parsing stops at the first
// syntax error, which is returned as a *syntax.SyntaxError.
func Parse(src string) (*syntax.Node, error) {
	p := NewParser(src)
	prog := p.parseProgram()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return prog, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.unexpected(t.String())
	return false
}

// expectLeaf consumes a token of type t and returns it as a leaf.
// Returns nil after recording an error if the current token does not match.
func (p *Parser) expectLeaf(t token.TokenType, want string) *syntax.Node {
	if !p.check(t) {
		p.unexpected(want)
		return nil
	}
	leaf := syntax.NewLeaf(p.token.Literal, p.token.Pos)
	p.nextToken()
	return leaf
}

func (p *Parser) expectIdent() *syntax.Node {
	return p.expectLeaf(token.IDENT, "identifier")
}

func (p *Parser) expectNumber() *syntax.Node {
	return p.expectLeaf(token.NUMBER, "number")
}

func (p *Parser) expectString() *syntax.Node {
	return p.expectLeaf(token.STRING, "string")
}

// unexpected records an error for the current token.
func (p *Parser) unexpected(want string) {
	if p.check(token.ILLEGAL) {
		p.illegal()
		return
	}
	p.addError(fmt.Sprintf(syntax.ErrUnexpectedToken, describe(p.token), want))
}

// illegal records an error for an ILLEGAL token produced by the lexer.
func (p *Parser) illegal() {
	lit := p.token.Literal
	switch {
	case strings.HasPrefix(lit, `"`) || strings.HasPrefix(lit, "'"):
		p.addError(syntax.ErrUnterminatedString)
	default:
		p.addError(syntax.ErrIllegalCharacter)
	}
}

// addError adds a syntax error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &syntax.SyntaxError{
		Pos:     p.token.Pos,
		Token:   p.token.Literal,
		Message: msg,
	})
}

// failed reports whether an error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.NUMBER:
		return fmt.Sprintf("number %s", tok.Literal)
	case token.STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	default:
		return tok.Type.String()
	}
}

// ---------- Program ----------

func (p *Parser) parseProgram() *syntax.Node {
	prog := syntax.NewNode(syntax.Program, p.token.Pos)
	for !p.check(token.EOF) {
		var decl *syntax.Node
		switch p.token.Type {
		case token.FUZZYVAR:
			decl = p.parseFuzzyVar()
		case token.RULE:
			decl = p.parseRule()
		case token.RULESET:
			decl = p.parseRuleset()
		case token.EXECUTE:
			decl = p.parseExecute()
		default:
			p.unexpected("FUZZYVAR, RULE, RULESET or EXECUTE")
		}
		if p.failed() {
			return nil
		}
		prog.Add(decl)
	}
	return prog
}
