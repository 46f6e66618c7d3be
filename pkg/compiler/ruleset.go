package compiler

import (
	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// ruleset compiles RULESETDEF name [DESCDEF] collection.
func (s *session) ruleset(n *syntax.Node) error {
	name, err := leaf(n, 0, "", "ruleset name")
	if err != nil {
		return err
	}

	var (
		description string
		collection  *syntax.Node
	)
	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.DescDef:
			text, err := leaf(c, 0, name, "description")
			if err != nil {
				return err
			}
			description = text
		case syntax.RuleCollectionAll, syntax.RuleCollectionNamed:
			if collection != nil {
				return malformed(c, name, "ruleset %s has more than one rule collection", name)
			}
			collection = c
		default:
			return malformed(c, name, "unexpected %s in ruleset %s", describe(c), name)
		}
	}
	if collection == nil {
		return malformed(n, name, "ruleset %s has no rule collection", name)
	}

	var rules []*fuzzy.Rule
	if collection.Label == syntax.RuleCollectionAll {
		rules = append(rules, s.pending...)
	} else {
		if collection.ChildCount() == 0 {
			return malformed(collection, name, "ruleset %s names no rules", name)
		}
		for i := range collection.Children {
			ruleName, err := leaf(collection, i, name, "rule name")
			if err != nil {
				return err
			}
			r, ok := s.ruleNames[ruleName]
			if !ok {
				return compileErr(KindUndefinedRule, collection.Child(i), name,
					"undefined rule %s encountered in ruleset %s", ruleName, name)
			}
			rules = append(rules, r)
		}
	}

	rs := fuzzy.NewRuleset(name, description, rules)
	rs.Finalize()
	if err := s.model.AddRuleset(rs); err != nil {
		ce := compileErr(KindDuplicateName, n, name, "ruleset %s is already declared", name)
		ce.Err = err
		return ce
	}

	s.logger.Debug("compiled ruleset", "name", name, "rules", len(rules))
	return nil
}

// execute compiles EXECUTEDEF name+ into an executor.
func (s *session) execute(n *syntax.Node) error {
	if n.ChildCount() == 0 {
		return malformed(n, "", "execution statement names no rulesets")
	}

	e := &fuzzy.Executor{}
	for i := range n.Children {
		name, err := leaf(n, i, "", "ruleset name")
		if err != nil {
			return err
		}
		rs, ok := s.model.Ruleset(name)
		if !ok {
			return compileErr(KindUndefinedRuleset, n.Child(i), name,
				"undefined ruleset %s encountered in execution statement", name)
		}
		e.Rulesets = append(e.Rulesets, rs)
	}

	s.model.AddExecutor(e)
	return nil
}
