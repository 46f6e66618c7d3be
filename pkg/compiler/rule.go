package compiler

import (
	"math"

	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// rule compiles RULEDEF name [attributes] WHENDEF into the pending buffer.
func (s *session) rule(n *syntax.Node) error {
	name, err := leaf(n, 0, "", "rule name")
	if err != nil {
		return err
	}
	if _, ok := s.ruleNames[name]; ok {
		return compileErr(KindDuplicateName, n, name, "rule %s is already declared", name)
	}

	r := fuzzy.NewRule(name)
	var when *syntax.Node

	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.CertaintyDef:
			v, err := number(c, 0, name, "certainty")
			if err != nil {
				return err
			}
			if v < 0 || v > 1 {
				return compileErr(KindInvalidCertainty, c, name, "invalid certainty factor %g specified for rule %s, expected a value in [0, 1]", v, name)
			}
			r.Certainty = v
		case syntax.PriorityDef:
			v, err := number(c, 0, name, "priority")
			if err != nil {
				return err
			}
			if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
				return compileErr(KindInvalidPriority, c, name, "invalid priority %g specified for rule %s, expected a non-negative integer", v, name)
			}
			r.Priority = int(v)
		case syntax.WeightDef:
			v, err := number(c, 0, name, "weight")
			if err != nil {
				return err
			}
			if v < 0 {
				return compileErr(KindInvalidWeight, c, name, "invalid weight %g specified for rule %s, expected a non-negative value", v, name)
			}
			r.Weight = v
		case syntax.DescDef:
			text, err := leaf(c, 0, name, "description")
			if err != nil {
				return err
			}
			r.Description = text
		case syntax.WhenDef:
			if when != nil {
				return malformed(c, name, "rule %s has more than one WHEN clause", name)
			}
			when = c
		default:
			return malformed(c, name, "unexpected %s in rule %s", describe(c), name)
		}
	}
	if when == nil {
		return malformed(n, name, "rule %s has no WHEN clause", name)
	}

	if err := s.when(r, when); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		ce := malformed(when, name, "%v", err)
		ce.Err = err
		return ce
	}

	s.pending = append(s.pending, r)
	s.ruleNames[name] = r
	s.logger.Debug("compiled rule", "name", name, "antecedents", len(r.Antecedents))
	return nil
}

// when compiles WHENDEF(ANTECEDENTSDEF, CONSEQUENTDEF) onto r.
func (s *session) when(r *fuzzy.Rule, n *syntax.Node) error {
	antecedents := n.Child(0)
	consequent := n.Child(1)
	if n.ChildCount() != 2 || antecedents.Label != syntax.AntecedentsDef || consequent.Label != syntax.ConsequentDef {
		return malformed(n, r.Name, "WHENDEF of rule %s must hold ANTECEDENTSDEF and CONSEQUENTDEF", r.Name)
	}
	if antecedents.ChildCount()%2 == 0 {
		return malformed(antecedents, r.Name, "rule %s must alternate antecedents and operators, starting and ending with an antecedent", r.Name)
	}

	for i, c := range antecedents.Children {
		if i%2 == 0 {
			if c.Label != syntax.AntecedentDef {
				return malformed(c, r.Name, "expected ANTECEDENTDEF in rule %s, got %s", r.Name, describe(c))
			}
			a, err := s.assignment(r.Name, c)
			if err != nil {
				return err
			}
			r.Antecedents = append(r.Antecedents, a)
			continue
		}

		if c.Label != syntax.OperatorDef {
			return malformed(c, r.Name, "expected OPERATORDEF in rule %s, got %s", r.Name, describe(c))
		}
		text, err := leaf(c, 0, r.Name, "operator")
		if err != nil {
			return err
		}
		op, err := fuzzy.ParseOperator(text)
		if err != nil {
			ce := malformed(c, r.Name, "unknown operator %q in rule %s", text, r.Name)
			ce.Err = err
			return ce
		}
		r.Operators = append(r.Operators, op)
	}

	a, err := s.assignment(r.Name, consequent)
	if err != nil {
		return err
	}
	r.Consequent = a
	return nil
}

// assignment resolves (variable, set) leaves against the declared
// variables. Errors cite the line of the offending leaf.
func (s *session) assignment(rule string, n *syntax.Node) (fuzzy.Assignment, error) {
	varName, err := leaf(n, 0, rule, "variable name")
	if err != nil {
		return fuzzy.Assignment{}, err
	}
	setName, err := leaf(n, 1, rule, "fuzzy set name")
	if err != nil {
		return fuzzy.Assignment{}, err
	}

	v, ok := s.model.Variable(varName)
	if !ok {
		return fuzzy.Assignment{}, compileErr(KindUndefinedVariable, n.Child(0), rule,
			"undefined variable %s encountered in rule %s", varName, rule)
	}
	set, ok := v.Set(setName)
	if !ok {
		return fuzzy.Assignment{}, compileErr(KindUndefinedSet, n.Child(1), rule,
			"undefined fuzzy set %s of variable %s encountered in rule %s", setName, varName, rule)
	}

	a, err := fuzzy.NewAssignment(v, set)
	if err != nil {
		ce := compileErr(KindUndefinedSet, n.Child(1), rule, "%v", err)
		ce.Err = err
		return fuzzy.Assignment{}, ce
	}
	return a, nil
}
