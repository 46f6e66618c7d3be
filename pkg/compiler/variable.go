package compiler

import (
	"errors"

	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// variable compiles FUZZYVAR name [FUZZYRANGEDEF] [DESCDEF] FUZZYSETDEF*.
func (s *session) variable(n *syntax.Node) error {
	name, err := leaf(n, 0, "", "variable name")
	if err != nil {
		return err
	}

	v := fuzzy.NewVariable(name, "")
	var declared *syntax.Node

	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.FuzzyRangeDef:
			if declared != nil {
				return malformed(c, name, "fuzzyvar %s declares its range twice", name)
			}
			declared = c
		case syntax.DescDef:
			text, err := leaf(c, 0, name, "description")
			if err != nil {
				return err
			}
			v.Description = text
		case syntax.FuzzySetDef:
			if err := s.set(v, c); err != nil {
				return err
			}
		default:
			return malformed(c, name, "unexpected %s in fuzzyvar %s", describe(c), name)
		}
	}

	lo, hi, ok := v.Extent()

	if declared != nil {
		from, err := number(declared, 0, name, "range minimum")
		if err != nil {
			return err
		}
		to, err := number(declared, 1, name, "range maximum")
		if err != nil {
			return err
		}
		r, err := fuzzy.NewRange(from, to)
		if err != nil {
			ce := compileErr(KindInvalidRange, declared, name, "invalid range (%g, %g) specified for fuzzyvar %s", from, to, name)
			ce.Err = err
			return ce
		}
		if !ok {
			return compileErr(KindRangeMismatch, declared, name, "fuzzyvar %s declares range %s but has no sets", name, r)
		}
		if lo != r.Min || hi != r.Max {
			return compileErr(KindRangeMismatch, declared, name,
				"range %s of fuzzyvar %s does not match its sets, which span [%g, %g]", r, name, lo, hi)
		}
		v.Range = r
	} else {
		if !ok {
			return compileErr(KindInvalidRange, n, name, "fuzzyvar %s has no range and no sets to derive one from", name)
		}
		r, err := fuzzy.NewRange(lo, hi)
		if err != nil {
			ce := compileErr(KindInvalidRange, n, name, "invalid range [%g, %g] derived for fuzzyvar %s", lo, hi, name)
			ce.Err = err
			return ce
		}
		v.Range = r
	}

	if err := s.model.AddVariable(v); err != nil {
		ce := compileErr(KindDuplicateName, n, name, "fuzzyvar %s is already declared", name)
		ce.Err = err
		return ce
	}

	s.logger.Debug("compiled variable", "name", name, "sets", len(v.Sets()), "range", v.Range.String())
	return nil
}

// set compiles FUZZYSETDEF shape name p1 p2 [p3] onto v.
func (s *session) set(v *fuzzy.Variable, n *syntax.Node) error {
	shape, err := leaf(n, 0, v.Name, "set shape")
	if err != nil {
		return err
	}
	name, err := leaf(n, 1, v.Name, "set name")
	if err != nil {
		return err
	}

	params := make([]float64, 0, 3)
	for i := 2; i < n.ChildCount(); i++ {
		p, err := number(n, i, v.Name, "set parameter")
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	if len(params) < 2 {
		return compileErr(KindMissingParameter, n, v.Name, "fuzzy set %s of fuzzyvar %s needs at least 2 parameters", name, v.Name)
	}

	var x0, x1, x2 float64
	switch shape {
	case syntax.ShapeS:
		x0, x1, x2 = params[0], params[0], params[1]
	case syntax.ShapeZ:
		x0, x1, x2 = params[0], params[1], params[1]
	case syntax.ShapeP:
		if len(params) < 3 {
			return compileErr(KindMissingParameter, n, v.Name, "fuzzy set %s of fuzzyvar %s has shape P and needs 3 parameters", name, v.Name)
		}
		x0, x1, x2 = params[0], params[1], params[2]
	default:
		return malformed(n, v.Name, "unknown shape %q for fuzzy set %s", shape, name)
	}
	if shape != syntax.ShapeP && len(params) > 2 {
		return compileErr(KindInvalidSet, n, v.Name, "fuzzy set %s of fuzzyvar %s takes 2 parameters, got %d", name, v.Name, len(params))
	}

	t, err := fuzzy.NewTriangular(name, x0, x1, x2)
	if err != nil {
		ce := compileErr(KindInvalidSet, n, v.Name, "invalid fuzzy set %s (%g, %g, %g) specified for fuzzyvar %s", name, x0, x1, x2, v.Name)
		ce.Err = err
		return ce
	}
	if err := v.AddSet(t); err != nil {
		kind := KindInvalidSet
		if errors.Is(err, fuzzy.ErrDuplicateSet) {
			kind = KindDuplicateName
		}
		ce := compileErr(kind, n, v.Name, "fuzzy set %s is already declared on fuzzyvar %s", name, v.Name)
		ce.Err = err
		return ce
	}
	return nil
}
