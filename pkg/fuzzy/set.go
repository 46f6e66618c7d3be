// Package fuzzy holds the executable model produced by the compiler and the
// inference algorithm that runs over it.
//
// A Model owns variables, rulesets and executors. Callers ground input
// variables with crisp values and call Execute, which fuzzifies the inputs,
// fires every rule of the first ruleset of each executor and defuzzifies the
// consequent sets into a single scalar.
//
// Set weights are scratch state written while rules fire. They are kept on
// the set between executions; call Model.ResetWeights to clear them.
package fuzzy

import "fmt"

// Set is a named membership function owned by a Variable.
//
// Triangular is the only implementation.
type Set interface {
	Name() string
	// Fuzzify returns the degree of membership of v, in [0, 1].
	Fuzzify(v float64) float64
	// Representative is the crisp value the set stands for when
	// defuzzifying.
	Representative() float64
	Weight() float64
	SetWeight(w float64)

	set()
}

// Triangular is a membership function rising from X0 to a peak at X1 and
// falling back to zero at X2. A shoulder has X0 == X1 or X1 == X2.
type Triangular struct {
	name       string
	X0, X1, X2 float64
	weight     float64
}

// NewTriangular creates a triangular set. The parameters must satisfy
// x0 <= x1 <= x2.
func NewTriangular(name string, x0, x1, x2 float64) (*Triangular, error) {
	if x0 > x1 || x1 > x2 {
		return nil, fmt.Errorf("%w: %s (%g, %g, %g)", ErrInvalidShape, name, x0, x1, x2)
	}
	return &Triangular{name: name, X0: x0, X1: x1, X2: x2}, nil
}

func (t *Triangular) set() {}

// Name returns the set name.
func (t *Triangular) Name() string { return t.name }

// Representative returns the peak X1.
func (t *Triangular) Representative() float64 { return t.X1 }

// Weight returns the weight written by the last qualifying rule.
func (t *Triangular) Weight() float64 { return t.weight }

// SetWeight overwrites the weight.
func (t *Triangular) SetWeight(w float64) { t.weight = w }

// Fuzzify evaluates the membership function. Values outside [X0, X2] map to
// zero; a degenerate side collapses to a step so that v == X1 is always 1.
func (t *Triangular) Fuzzify(v float64) float64 {
	switch {
	case v >= t.X0 && v < t.X1:
		return (v - t.X0) / (t.X1 - t.X0)
	case v >= t.X1 && v < t.X2:
		return (t.X2 - v) / (t.X2 - t.X1)
	case v == t.X1:
		return 1
	default:
		return 0
	}
}

func (t *Triangular) String() string {
	return fmt.Sprintf("%s(%g, %g, %g)", t.name, t.X0, t.X1, t.X2)
}
