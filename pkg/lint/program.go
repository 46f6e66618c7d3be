package lint

import (
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// Program indexes the declarations of a syntax tree for rule checks.
type Program struct {
	Variables []*Variable
	Rules     []*Rule
	Rulesets  []*Ruleset
	Executes  []*Execute
}

// Variable is a fuzzyvar declaration.
type Variable struct {
	Name string
	Pos  token.Position
	Sets []*Set
}

// Set is a fuzzy set declared inside a variable.
type Set struct {
	Name string
	Pos  token.Position
}

// Rule is a rule declaration.
type Rule struct {
	Name        string
	Pos         token.Position
	Antecedents []Ref
	Consequent  Ref
	Attributes  []Attribute
}

// Ref is a "variable is set" reference.
type Ref struct {
	Variable string
	Set      string
	Pos      token.Position
}

// Attribute is a numeric rule attribute such as priority.
type Attribute struct {
	Name  string
	Value string
	Pos   token.Position
}

// Ruleset is a ruleset declaration. All is set for "{ all }".
type Ruleset struct {
	Name  string
	Pos   token.Position
	All   bool
	Rules []string
}

// Execute is an execute statement.
type Execute struct {
	Pos      token.Position
	Rulesets []string
}

var attributeNames = map[syntax.Label]string{
	syntax.CertaintyDef: "certainty",
	syntax.PriorityDef:  "priority",
	syntax.WeightDef:    "weight",
}

// NewProgram indexes tree. Nodes that do not have the expected shape are
// skipped; the compiler reports those.
func NewProgram(tree *syntax.Node) *Program {
	prog := &Program{}
	if tree == nil {
		return prog
	}
	for _, decl := range tree.Children {
		name := decl.Child(0)
		switch decl.Label {
		case syntax.FuzzyVar:
			if name == nil {
				continue
			}
			v := &Variable{Name: name.Text, Pos: decl.Pos}
			for _, c := range decl.Children {
				if c.Label == syntax.FuzzySetDef && c.ChildCount() > 1 {
					v.Sets = append(v.Sets, &Set{Name: c.Child(1).Text, Pos: c.Pos})
				}
			}
			prog.Variables = append(prog.Variables, v)

		case syntax.RuleDef:
			if name == nil {
				continue
			}
			prog.Rules = append(prog.Rules, newRule(decl))

		case syntax.RulesetDef:
			if name == nil {
				continue
			}
			rs := &Ruleset{Name: name.Text, Pos: decl.Pos}
			for _, c := range decl.Children {
				switch c.Label {
				case syntax.RuleCollectionAll:
					rs.All = true
				case syntax.RuleCollectionNamed:
					rs.Rules = leafTexts(c.Children)
				}
			}
			prog.Rulesets = append(prog.Rulesets, rs)

		case syntax.ExecuteDef:
			prog.Executes = append(prog.Executes, &Execute{Pos: decl.Pos, Rulesets: leafTexts(decl.Children)})
		}
	}
	return prog
}

func newRule(decl *syntax.Node) *Rule {
	r := &Rule{Name: decl.Child(0).Text, Pos: decl.Pos}
	for _, c := range decl.Children[1:] {
		if attr, ok := attributeNames[c.Label]; ok && c.ChildCount() > 0 {
			r.Attributes = append(r.Attributes, Attribute{Name: attr, Value: c.Child(0).Text, Pos: c.Pos})
			continue
		}
		if c.Label != syntax.WhenDef || c.ChildCount() != 2 {
			continue
		}
		for _, a := range c.Child(0).Children {
			if ref, ok := newRef(a); ok {
				r.Antecedents = append(r.Antecedents, ref)
			}
		}
		if ref, ok := newRef(c.Child(1)); ok {
			r.Consequent = ref
		}
	}
	return r
}

func newRef(n *syntax.Node) (Ref, bool) {
	if n == nil || (n.Label != syntax.AntecedentDef && n.Label != syntax.ConsequentDef) || n.ChildCount() != 2 {
		return Ref{}, false
	}
	return Ref{Variable: n.Child(0).Text, Set: n.Child(1).Text, Pos: n.Pos}, true
}

func leafTexts(nodes []*syntax.Node) []string {
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, n.Text)
	}
	return texts
}

// refs returns every variable/set reference made by a rule.
func (p *Program) refs() []Ref {
	var refs []Ref
	for _, r := range p.Rules {
		refs = append(refs, r.Antecedents...)
		if r.Consequent.Variable != "" {
			refs = append(refs, r.Consequent)
		}
	}
	return refs
}
