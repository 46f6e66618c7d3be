package token

import (
	"cmp"
	"strconv"
)

// Position locates a byte in a program. Line and Column count from 1;
// the zero Position means "unknown".
type Position struct {
	Line   int
	Column int
	Offset int // bytes from the start of the source
}

// IsValid reports whether p points into a source.
func (p Position) IsValid() bool { return p.Line > 0 }

// Compare orders positions by line, then column.
func (p Position) Compare(q Position) int {
	return cmp.Or(cmp.Compare(p.Line, q.Line), cmp.Compare(p.Column, q.Column))
}

// String renders p as "line:column", or "-" when unknown.
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}
