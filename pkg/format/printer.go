// Package format prints syntax trees back as canonical rule language source.
package format

import "strings"

const indentUnit = "    "

// printer builds source one line at a time. Pieces written to the current
// line are joined verbatim; the line is indented when it is terminated.
type printer struct {
	lines []string
	line  strings.Builder
	depth int
}

func newPrinter() *printer {
	return &printer{}
}

// String returns the formatted output. Trailing blank lines collapse into a
// single final newline.
func (p *printer) String() string {
	lines := p.lines
	if p.line.Len() > 0 {
		lines = append(lines, p.render())
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

func (p *printer) render() string {
	text := strings.TrimRight(p.line.String(), " ")
	if text == "" {
		return ""
	}
	return strings.Repeat(indentUnit, p.depth) + text
}

func (p *printer) write(s string) {
	p.line.WriteString(s)
}

// writeln ends the current line. An empty line is kept as a separator.
func (p *printer) writeln() {
	p.lines = append(p.lines, p.render())
	p.line.Reset()
}

func (p *printer) indent() { p.depth++ }

func (p *printer) dedent() {
	p.depth = max(p.depth-1, 0)
}

// words writes its arguments separated by single spaces.
func (p *printer) words(ws ...string) {
	p.write(strings.Join(ws, " "))
}

// quote writes s as a double-quoted string, doubling embedded quotes.
func (p *printer) quote(s string) {
	p.write(`"` + strings.ReplaceAll(s, `"`, `""`) + `"`)
}
