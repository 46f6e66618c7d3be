package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

var punctuation = map[byte]token.TokenType{
	',': token.COMMA,
	';': token.SEMICOLON,
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
}

// Lexer splits rule language source into tokens. Keywords are matched
// case-insensitively; identifiers keep their spelling.
type Lexer struct {
	src       string
	off       int // next unread byte
	line      int
	lineStart int // offset of the first byte of the current line
}

// NewLexer returns a lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// at returns the byte n positions ahead, or 0 past the end.
func (l *Lexer) at(n int) byte {
	if i := l.off + n; i < len(l.src) {
		return l.src[i]
	}
	return 0
}

func (l *Lexer) advance() {
	if l.off >= len(l.src) {
		return
	}
	if l.src[l.off] == '\n' {
		l.line++
		l.lineStart = l.off + 1
	}
	l.off++
}

func (l *Lexer) skip(n int) {
	for range n {
		l.advance()
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.off - l.lineStart + 1, Offset: l.off}
}

// NextToken scans the next token. At the end of input it keeps returning
// EOF.
func (l *Lexer) NextToken() token.Token {
	l.skipSpace()
	pos := l.position()
	emit := func(typ token.TokenType, lit string) token.Token {
		return token.Token{Type: typ, Literal: lit, Pos: pos}
	}

	c := l.at(0)
	if l.off >= len(l.src) {
		return emit(token.EOF, "")
	}
	if typ, ok := punctuation[c]; ok {
		l.advance()
		return emit(typ, string(c))
	}

	switch {
	case c == '"' || c == '\'':
		lit, closed := l.scanString(c)
		if !closed {
			return emit(token.ILLEGAL, lit)
		}
		return emit(token.STRING, lit)
	case isDigit(c), c == '-' && isDigit(l.at(1)):
		return emit(token.NUMBER, l.scanNumber())
	case isIdentStart(c):
		start := l.off
		for isIdentStart(l.at(0)) || isDigit(l.at(0)) {
			l.advance()
		}
		lit := l.src[start:l.off]
		return emit(token.LookupIdent(strings.ToLower(lit)), lit)
	}

	l.advance()
	return emit(token.ILLEGAL, string(c))
}

// skipSpace consumes blanks and comments: "#" and "//" run to the end of
// the line, "/* */" may span lines. An unterminated block comment runs to
// the end of input.
func (l *Lexer) skipSpace() {
	for l.off < len(l.src) {
		switch c := l.at(0); {
		case c == ' ', c == '\t', c == '\n', c == '\r':
			l.advance()
		case c == '#', c == '/' && l.at(1) == '/':
			for l.off < len(l.src) && l.at(0) != '\n' {
				l.advance()
			}
		case c == '/' && l.at(1) == '*':
			l.skip(2)
			for l.off < len(l.src) && (l.at(0) != '*' || l.at(1) != '/') {
				l.advance()
			}
			l.skip(2)
		default:
			return
		}
	}
}

// scanString reads a literal delimited by quote, where a doubled quote
// stands for one quote character. When input ends first it returns the
// opening quote and the text read, and false.
func (l *Lexer) scanString(quote byte) (string, bool) {
	l.advance()
	var b strings.Builder
	for l.off < len(l.src) {
		c := l.at(0)
		if c != quote {
			b.WriteByte(c)
			l.advance()
			continue
		}
		if l.at(1) == quote {
			b.WriteByte(quote)
			l.skip(2)
			continue
		}
		l.advance()
		return b.String(), true
	}
	return string(quote) + b.String(), false
}

// scanNumber reads an optionally negative integer, decimal or
// exponent-form number such as 12, -0.5 or 1e-3.
func (l *Lexer) scanNumber() string {
	start := l.off
	if l.at(0) == '-' {
		l.advance()
	}
	l.digits()
	if l.at(0) == '.' && isDigit(l.at(1)) {
		l.advance()
		l.digits()
	}
	if e := l.at(0); e == 'e' || e == 'E' {
		if next := l.at(1); isDigit(next) || next == '+' || next == '-' {
			l.advance()
			if s := l.at(0); s == '+' || s == '-' {
				l.advance()
			}
			l.digits()
		}
	}
	return l.src[start:l.off]
}

func (l *Lexer) digits() {
	for isDigit(l.at(0)) {
		l.advance()
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// Tokenize scans all of src, ending with the EOF token.
func Tokenize(src string) []token.Token {
	l := NewLexer(src)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}
