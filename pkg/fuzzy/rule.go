package fuzzy

import (
	"fmt"
	"math"
	"strings"
)

// Operator combines two membership degrees.
type Operator int

const (
	// And takes the minimum.
	And Operator = iota
	// Or takes the maximum.
	Or
)

// ParseOperator maps "and" / "or" (any case) to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(s) {
	case "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
}

// Apply combines a and b.
func (o Operator) Apply(a, b float64) float64 {
	if o == Or {
		return math.Max(a, b)
	}
	return math.Min(a, b)
}

func (o Operator) String() string {
	if o == Or {
		return "OR"
	}
	return "AND"
}

// Assignment pairs a variable with one of its sets: "water is low".
type Assignment struct {
	Variable *Variable
	Set      Set
}

// NewAssignment checks that s is one of v's sets.
func NewAssignment(v *Variable, s Set) (Assignment, error) {
	if own, ok := v.Set(s.Name()); !ok || own != s {
		return Assignment{}, fmt.Errorf("%w: %s is not a set of %s", ErrForeignSet, s.Name(), v.Name)
	}
	return Assignment{Variable: v, Set: s}, nil
}

// Degree fuzzifies the variable's ground value against the set.
func (a Assignment) Degree() float64 {
	return a.Set.Fuzzify(a.Variable.Ground())
}

func (a Assignment) String() string {
	return a.Variable.Name + " is " + a.Set.Name()
}

// Rule is one inference rule. Priority, Certainty and Weight are carried
// for callers; firing does not use them.
type Rule struct {
	Name        string
	Description string
	Priority    int
	Certainty   float64
	Weight      float64

	Antecedents []Assignment
	Operators   []Operator
	Consequent  Assignment
}

// NewRule creates a rule with the default attributes: priority, certainty
// and weight 1, description equal to the name.
func NewRule(name string) *Rule {
	return &Rule{
		Name:        name,
		Description: name,
		Priority:    1,
		Certainty:   1,
		Weight:      1,
	}
}

// Validate checks that operators sit between antecedents.
func (r *Rule) Validate() error {
	if len(r.Antecedents) == 0 {
		return fmt.Errorf("%w: rule %s has no antecedents", ErrMalformedRule, r.Name)
	}
	if len(r.Antecedents) != len(r.Operators)+1 {
		return fmt.Errorf("%w: rule %s has %d antecedents and %d operators",
			ErrMalformedRule, r.Name, len(r.Antecedents), len(r.Operators))
	}
	if r.Consequent.Variable == nil || r.Consequent.Set == nil {
		return fmt.Errorf("%w: rule %s has no consequent", ErrMalformedRule, r.Name)
	}
	return nil
}

// Fire returns the firing strength: the antecedent degrees folded left to
// right with the rule's operators. There is no precedence, so
// a AND b OR c is max(min(a, b), c).
func (r *Rule) Fire() float64 {
	strength := r.Antecedents[0].Degree()
	for i, op := range r.Operators {
		strength = op.Apply(strength, r.Antecedents[i+1].Degree())
	}
	return strength
}

func (r *Rule) String() string {
	var sb strings.Builder
	sb.WriteString("when ")
	for i, a := range r.Antecedents {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(r.Operators[i-1].String())
			sb.WriteString(" ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(" then ")
	sb.WriteString(r.Consequent.String())
	return sb.String()
}
