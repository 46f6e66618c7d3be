package lsp

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/compiler"
	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/leapstack-labs/fuzzrule/pkg/parser"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

const diagnosticSource = "fuzzrule"

// publishDiagnostics analyzes doc and sends the result to the client.
func (s *Server) publishDiagnostics(doc *Document) {
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     doc.Version,
		Diagnostics: s.analyze(doc),
	})
}

// analyze parses, compiles and lints doc. A syntax error hides everything
// else; a compile error is reported alongside the lint findings. The
// document's index and model are refreshed when parsing and compiling
// succeed.
func (s *Server) analyze(doc *Document) []Diagnostic {
	diagnostics := []Diagnostic{}

	tree, err := parser.Parse(doc.Content)
	if err != nil {
		return append(diagnostics, syntaxDiagnostic(err))
	}
	doc.Index = lint.NewProgram(tree)

	model, err := compiler.Compile(tree)
	if err != nil {
		diagnostics = append(diagnostics, compileDiagnostic(doc, err))
	} else {
		doc.Model = model
	}

	for _, d := range lint.NewAnalyzer(s.lint).Analyze(tree) {
		diagnostics = append(diagnostics, lintDiagnostic(doc, d))
	}
	return diagnostics
}

func syntaxDiagnostic(err error) Diagnostic {
	var se *syntax.SyntaxError
	if !errors.As(err, &se) {
		return Diagnostic{Severity: DiagnosticSeverityError, Source: diagnosticSource, Code: "syntax", Message: err.Error()}
	}
	start := toPosition(se.Pos)
	end := start
	end.Character += uint32(max(len(se.Token), 1)) //nolint:gosec // G115: token length is small
	return Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: DiagnosticSeverityError,
		Source:   diagnosticSource,
		Code:     "syntax",
		Message:  se.Message,
	}
}

// compileDiagnostic spans the whole line the error points at; compile
// errors carry no column.
func compileDiagnostic(doc *Document, err error) Diagnostic {
	d := Diagnostic{Severity: DiagnosticSeverityError, Source: diagnosticSource, Message: err.Error()}
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return d
	}
	d.Code = ce.Kind.String()
	d.Message = ce.Message
	if ce.Line > 0 {
		d.Range = lineRange(doc, ce.Line-1)
	}
	return d
}

func lintDiagnostic(doc *Document, d lint.Diagnostic) Diagnostic {
	start := toPosition(d.Pos)
	r := lineRange(doc, int(start.Line))
	if start.Character < r.End.Character {
		r.Start = start
	}
	return Diagnostic{
		Range:    r,
		Severity: toLSPSeverity(d.Severity),
		Code:     d.RuleID,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
}

func lineRange(doc *Document, line int) Range {
	text := doc.Line(line)
	indent := len(text) - len(strings.TrimLeft(text, " \t"))
	return Range{
		Start: Position{Line: uint32(line), Character: uint32(indent)},    //nolint:gosec // G115: line is in range
		End:   Position{Line: uint32(line), Character: uint32(len(text))}, //nolint:gosec // G115: line is in range
	}
}

// toLSPSeverity relies on both scales running from error to hint.
func toLSPSeverity(s lint.Severity) DiagnosticSeverity {
	if s < lint.SeverityError || s > lint.SeverityHint {
		return DiagnosticSeverityWarning
	}
	return DiagnosticSeverity(s) + DiagnosticSeverityError
}
