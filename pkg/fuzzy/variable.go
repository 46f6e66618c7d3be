package fuzzy

import (
	"fmt"
	"math"
)

// Range is the universe of discourse of a variable.
type Range struct {
	Min float64
	Max float64
}

// NewRange creates a range; min must be strictly below max.
func NewRange(lo, hi float64) (Range, error) {
	if !(lo < hi) {
		return Range{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, lo, hi)
	}
	return Range{Min: lo, Max: hi}, nil
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// Variable is a linguistic variable with its ordered fuzzy sets.
type Variable struct {
	Name        string
	Description string
	Range       Range

	sets   []Set
	byName map[string]Set
	ground float64
}

// NewVariable creates a variable with no sets.
func NewVariable(name, description string) *Variable {
	return &Variable{
		Name:        name,
		Description: description,
		byName:      make(map[string]Set),
	}
}

// AddSet appends s to the variable. Set names are unique per variable.
func (v *Variable) AddSet(s Set) error {
	if _, ok := v.byName[s.Name()]; ok {
		return fmt.Errorf("%w: %s on variable %s", ErrDuplicateSet, s.Name(), v.Name)
	}
	v.sets = append(v.sets, s)
	v.byName[s.Name()] = s
	return nil
}

// Set looks up a set by name.
func (v *Variable) Set(name string) (Set, bool) {
	s, ok := v.byName[name]
	return s, ok
}

// Sets returns the sets in declaration order.
func (v *Variable) Sets() []Set {
	return v.sets
}

// Extent returns the smallest X0 and the largest X2 over all sets.
// ok is false when the variable has no sets.
func (v *Variable) Extent() (lo, hi float64, ok bool) {
	if len(v.sets) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range v.sets {
		t := s.(*Triangular)
		lo = math.Min(lo, t.X0)
		hi = math.Max(hi, t.X2)
	}
	return lo, hi, true
}

// Ground returns the current crisp value.
func (v *Variable) Ground() float64 {
	return v.ground
}

// SetGround assigns the crisp value used by the next execution.
func (v *Variable) SetGround(value float64) {
	v.ground = value
}

// WeightSum returns the sum of the weights of all sets.
func (v *Variable) WeightSum() float64 {
	var sum float64
	for _, s := range v.sets {
		sum += s.Weight()
	}
	return sum
}

// Defuzzify returns the weighted centroid of the set representatives, or
// zero when no set carries weight.
func (v *Variable) Defuzzify() float64 {
	var num, den float64
	for _, s := range v.sets {
		num += s.Representative() * s.Weight()
		den += s.Weight()
	}
	if den == 0 {
		return 0
	}
	return num / den
}
