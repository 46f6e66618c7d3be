// Package compiler turns a syntax tree into an executable fuzzy.Model.
//
// The tree is walked once in document order. Variables must be declared
// before rules use them, rules before rulesets collect them and rulesets
// before an execute statement names them. The first violation aborts the
// compile and no model is returned.
package compiler

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// Compiler compiles syntax trees. A Compiler holds no per-compile state
// and may be reused.
type Compiler struct {
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles tree with a default compiler.
func Compile(tree *syntax.Node) (*fuzzy.Model, error) {
	return New().Compile(tree)
}

// session is the state of one Compile call. Rules wait in pending until a
// ruleset collects them; they are not visible to later compiles.
type session struct {
	model     *fuzzy.Model
	pending   []*fuzzy.Rule
	ruleNames map[string]*fuzzy.Rule
	logger    *slog.Logger
}

// Compile validates tree and builds a model from it.
func (c *Compiler) Compile(tree *syntax.Node) (*fuzzy.Model, error) {
	if tree == nil || tree.Label != syntax.Program {
		return nil, &CompileError{Kind: KindMalformedTree, Message: "expected a PROGRAM node at the root"}
	}

	s := &session{
		model:     fuzzy.NewModel(),
		ruleNames: make(map[string]*fuzzy.Rule),
		logger:    c.logger,
	}

	for _, decl := range tree.Children {
		var err error
		switch decl.Label {
		case syntax.FuzzyVar:
			err = s.variable(decl)
		case syntax.RuleDef:
			err = s.rule(decl)
		case syntax.RulesetDef:
			err = s.ruleset(decl)
		case syntax.ExecuteDef:
			err = s.execute(decl)
		default:
			err = malformed(decl, "", "unexpected %s at top level", describe(decl))
		}
		if err != nil {
			c.logger.Debug("compile failed", "error", err)
			return nil, err
		}
	}

	c.logger.Debug("compiled program",
		"variables", len(s.model.Variables()),
		"rules", len(s.pending),
		"rulesets", len(s.model.Rulesets()),
		"executors", len(s.model.Executors()))
	return s.model, nil
}

// ---------- helpers ----------

func describe(n *syntax.Node) string {
	if n.IsLeaf() {
		return strconv.Quote(n.Text)
	}
	return string(n.Label)
}

func compileErr(kind Kind, n *syntax.Node, subject, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:    kind,
		Subject: subject,
		Line:    n.Line(),
		Message: fmt.Sprintf(format, args...),
	}
}

func malformed(n *syntax.Node, subject, format string, args ...any) *CompileError {
	return compileErr(KindMalformedTree, n, subject, format, args...)
}

// leaf returns the text of the i-th child of n, which must be a leaf.
func leaf(n *syntax.Node, i int, subject, what string) (string, error) {
	c := n.Child(i)
	if c == nil || !c.IsLeaf() {
		return "", malformed(n, subject, "%s: missing %s", n.Label, what)
	}
	return c.Text, nil
}

// number parses the i-th child of n as a float.
func number(n *syntax.Node, i int, subject, what string) (float64, error) {
	text, err := leaf(n, i, subject, what)
	if err != nil {
		return 0, err
	}
	v, perr := strconv.ParseFloat(text, 64)
	if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed(n.Child(i), subject, "%s: %s %q is not a number", n.Label, what, text)
	}
	return v, nil
}
