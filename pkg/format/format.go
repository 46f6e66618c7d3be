package format

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/parser"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
)

// shapeLetters maps set shape leaves back to their source letter.
var shapeLetters = map[string]string{
	syntax.ShapeS: "S",
	syntax.ShapeZ: "Z",
	syntax.ShapeP: "P",
}

// Format prints a PROGRAM tree as canonical source. Comments are not part
// of the tree and are not reproduced.
func Format(tree *syntax.Node) (string, error) {
	if tree == nil || tree.Label != syntax.Program {
		return "", fmt.Errorf("expected %s node", syntax.Program)
	}

	p := newPrinter()
	var prev *syntax.Node
	for _, decl := range tree.Children {
		if prev != nil && separated(prev, decl) {
			p.writeln()
		}
		if err := p.formatDecl(decl); err != nil {
			return "", err
		}
		prev = decl
	}
	return p.String(), nil
}

// Source parses src and formats the result.
func Source(src string) (string, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	return Format(tree)
}

// separated reports whether a blank line goes between two declarations.
// Consecutive rulesets and consecutive executes stay together.
func separated(prev, next *syntax.Node) bool {
	if prev.Label != next.Label {
		return true
	}
	return next.Label != syntax.RulesetDef && next.Label != syntax.ExecuteDef
}

func (p *printer) formatDecl(n *syntax.Node) error {
	if n.ChildCount() == 0 {
		return unexpected(n)
	}
	switch n.Label {
	case syntax.FuzzyVar:
		return p.formatFuzzyVar(n)
	case syntax.RuleDef:
		return p.formatRule(n)
	case syntax.RulesetDef:
		return p.formatRuleset(n)
	case syntax.ExecuteDef:
		p.write("execute ")
		p.write(joinLeaves(n.Children, ", "))
		p.write(";")
		p.writeln()
		return nil
	default:
		return unexpected(n)
	}
}

func (p *printer) formatFuzzyVar(n *syntax.Node) error {
	p.words("fuzzyvar", n.Child(0).Text)
	var sets []*syntax.Node
	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.FuzzyRangeDef:
			p.write(fmt.Sprintf(" range (%s, %s)", c.Child(0).Text, c.Child(1).Text))
		case syntax.DescDef:
			p.write(" desc ")
			p.quote(c.Child(0).Text)
		case syntax.FuzzySetDef:
			sets = append(sets, c)
		default:
			return unexpected(c)
		}
	}
	p.write(" {")
	p.writeln()

	p.indent()
	for _, s := range sets {
		letter, ok := shapeLetters[s.Child(0).Text]
		if !ok || s.ChildCount() < 4 {
			return unexpected(s)
		}
		p.words(letter, s.Child(1).Text)
		p.write(" (" + joinLeaves(s.Children[2:], ", ") + ");")
		p.writeln()
	}
	p.dedent()

	p.write("}")
	p.writeln()
	return nil
}

func (p *printer) formatRule(n *syntax.Node) error {
	p.words("rule", n.Child(0).Text)

	var when *syntax.Node
	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.CertaintyDef:
			p.write(" certainty " + c.Child(0).Text)
		case syntax.PriorityDef:
			p.write(" priority " + c.Child(0).Text)
		case syntax.WeightDef:
			p.write(" weight " + c.Child(0).Text)
		case syntax.DescDef:
			p.write(" desc ")
			p.quote(c.Child(0).Text)
		case syntax.WhenDef:
			when = c
		default:
			return unexpected(c)
		}
	}
	if when == nil || when.ChildCount() != 2 {
		return unexpected(n)
	}
	p.writeln()

	p.indent()
	p.write("when")
	for _, c := range when.Child(0).Children {
		switch c.Label {
		case syntax.AntecedentDef:
			p.write(" " + assignment(c))
		case syntax.OperatorDef:
			p.write(" " + c.Child(0).Text)
		default:
			return unexpected(c)
		}
	}
	p.writeln()
	p.write("then " + assignment(when.Child(1)) + ";")
	p.writeln()
	p.dedent()
	return nil
}

func (p *printer) formatRuleset(n *syntax.Node) error {
	p.words("ruleset", n.Child(0).Text)
	for _, c := range n.Children[1:] {
		switch c.Label {
		case syntax.DescDef:
			p.write(" desc ")
			p.quote(c.Child(0).Text)
		case syntax.RuleCollectionAll:
			p.write(" { all }")
		case syntax.RuleCollectionNamed:
			p.write(" { " + joinLeaves(c.Children, ", ") + " }")
		default:
			return unexpected(c)
		}
	}
	p.writeln()
	return nil
}

func assignment(n *syntax.Node) string {
	return n.Child(0).Text + " is " + n.Child(1).Text
}

func joinLeaves(nodes []*syntax.Node, sep string) string {
	texts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		texts = append(texts, n.Text)
	}
	return strings.Join(texts, sep)
}

func unexpected(n *syntax.Node) error {
	return fmt.Errorf("unexpected %s node at line %d", n.Label, n.Line())
}
