// Package domain is the entry point for embedding the rule language: it
// owns the compiled model and exposes compile, ground and execute.
//
//	d := domain.New()
//	if err := d.CompileSource(src); err != nil {
//	    return err
//	}
//	_ = d.Ground("water", 10)
//	result := d.Execute()
//
// A Domain is a single mutable resource and is not safe for concurrent use.
package domain

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/fuzzrule/pkg/compiler"
	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/parser"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// ErrNotCompiled is returned by Ground before a program has been compiled.
// The error also matches *fuzzy.UndefinedVariableError, since an empty
// domain declares no variables.
var ErrNotCompiled = errors.New("no program compiled")

// Domain holds a compiled model and the result of the last execution.
type Domain struct {
	// Result is the value returned by the last Execute.
	Result float64

	model    *fuzzy.Model
	compiler *compiler.Compiler
	logger   *slog.Logger
	hooks    *fuzzy.Hooks
}

// Option configures a Domain.
type Option func(*Domain)

// WithLogger sets the logger for compile and execution events.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Domain) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHooks installs inference observers on every model the domain
// publishes.
func WithHooks(h *fuzzy.Hooks) Option {
	return func(d *Domain) {
		d.hooks = h
	}
}

// New creates an empty domain.
func New(opts ...Option) *Domain {
	d := &Domain{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.compiler = compiler.New(compiler.WithLogger(d.logger))
	return d
}

// Compile compiles tree and, on success, replaces the current model and
// resets Result. On failure the current model is left untouched and the
// *compiler.CompileError is returned.
func (d *Domain) Compile(tree *syntax.Node) error {
	m, err := d.compiler.Compile(tree)
	if err != nil {
		return err
	}
	m.SetHooks(d.hooks)
	d.model = m
	d.Result = 0
	d.logger.Debug("program published",
		"variables", len(m.Variables()),
		"rulesets", len(m.Rulesets()),
		"executors", len(m.Executors()))
	return nil
}

// CompileSource parses src and compiles it. Parse failures are returned as
// *syntax.SyntaxError.
func (d *Domain) CompileSource(src string) error {
	tree, err := parser.Parse(src)
	if err != nil {
		return err
	}
	return d.Compile(tree)
}

// Ground sets the crisp value of an input variable.
func (d *Domain) Ground(name string, value float64) error {
	if d.model == nil {
		return fmt.Errorf("%w: %w", ErrNotCompiled, &fuzzy.UndefinedVariableError{Name: name})
	}
	if err := d.model.Ground(name, value); err != nil {
		return err
	}
	d.logger.Debug("grounded variable", "name", name, "value", value)
	return nil
}

// Execute runs the executors and stores the outcome in Result. Without a
// compiled model it returns the current Result.
func (d *Domain) Execute() float64 {
	if d.model == nil {
		return d.Result
	}
	if len(d.model.Executors()) > 0 {
		d.Result = d.model.Execute()
	}
	d.logger.Debug("executed program", "result", d.Result)
	return d.Result
}

// Model returns the published model, or nil.
func (d *Domain) Model() *fuzzy.Model {
	return d.model
}

// Compiled reports whether a model has been published.
func (d *Domain) Compiled() bool {
	return d.model != nil
}

// ResetWeights clears all set weights of the published model.
func (d *Domain) ResetWeights() {
	if d.model != nil {
		d.model.ResetWeights()
	}
}
