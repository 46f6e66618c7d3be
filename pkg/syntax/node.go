// Package syntax defines the generic labelled tree handed from the parser to
// the semantic compiler.
//
// A tree is made of interior nodes, identified by a Label such as FUZZYVAR or
// RULEDEF, and leaves holding the text of a source token. Every node carries
// the position of the token it was built from so that the compiler can cite
// source lines in its errors.
//
// Expected shapes (leaves in lower case):
//
//	FUZZYVAR        name [FUZZYRANGEDEF(min max)] [DESCDEF(text)] FUZZYSETDEF*
//	FUZZYSETDEF     shape name p1 p2 [p3]        shape ∈ SHAPES | SHAPEZ | SHAPEP
//	RULEDEF         name [CERTAINTYDEF(v)] [PRIORITYDEF(v)] [WEIGHTDEF(v)] [DESCDEF(text)] WHENDEF
//	WHENDEF         ANTECEDENTSDEF CONSEQUENTDEF
//	ANTECEDENTSDEF  ANTECEDENTDEF (OPERATORDEF ANTECEDENTDEF)*
//	ANTECEDENTDEF   variable set
//	OPERATORDEF     and | or
//	CONSEQUENTDEF   variable set
//	RULESETDEF      name [DESCDEF(text)] (RULECOLLECTIONALLDEFCHOICE | RULECOLLECTIONDEFCHOICE(name+))
//	EXECUTEDEF      name+
package syntax

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// Label tags an interior node of the tree.
type Label string

// Node labels.
const (
	Leaf Label = "" // token leaf, see Node.Text

	Program             Label = "PROGRAM"
	FuzzyVar            Label = "FUZZYVAR"
	FuzzyRangeDef       Label = "FUZZYRANGEDEF"
	DescDef             Label = "DESCDEF"
	FuzzySetDef         Label = "FUZZYSETDEF"
	RuleDef             Label = "RULEDEF"
	CertaintyDef        Label = "CERTAINTYDEF"
	PriorityDef         Label = "PRIORITYDEF"
	WeightDef           Label = "WEIGHTDEF"
	WhenDef             Label = "WHENDEF"
	AntecedentsDef      Label = "ANTECEDENTSDEF"
	AntecedentDef       Label = "ANTECEDENTDEF"
	OperatorDef         Label = "OPERATORDEF"
	ConsequentDef       Label = "CONSEQUENTDEF"
	RulesetDef          Label = "RULESETDEF"
	RuleCollectionAll   Label = "RULECOLLECTIONALLDEFCHOICE"
	RuleCollectionNamed Label = "RULECOLLECTIONDEFCHOICE"
	ExecuteDef          Label = "EXECUTEDEF"
)

// Shape leaf texts used as the first child of FUZZYSETDEF.
const (
	ShapeS = "SHAPES" // left shoulder
	ShapeZ = "SHAPEZ" // right shoulder
	ShapeP = "SHAPEP" // peak
)

// Operator leaf texts used as the child of OPERATORDEF.
const (
	OpAnd = "and"
	OpOr  = "or"
)

// Node is one node of the syntax tree.
type Node struct {
	Label    Label
	Text     string // token text, set on leaves
	Pos      token.Position
	Children []*Node
}

// NewNode creates an interior node.
func NewNode(label Label, pos token.Position, children ...*Node) *Node {
	return &Node{Label: label, Pos: pos, Children: children}
}

// NewLeaf creates a token leaf.
func NewLeaf(text string, pos token.Position) *Node {
	return &Node{Label: Leaf, Text: text, Pos: pos}
}

// IsLeaf reports whether n is a token leaf.
func (n *Node) IsLeaf() bool {
	return n.Label == Leaf
}

// Add appends children to n.
func (n *Node) Add(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.Children)
}

// Child returns the i-th child, or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Line returns the 1-based source line of the node, 0 if unknown.
func (n *Node) Line() int {
	return n.Pos.Line
}

// String renders the tree as an s-expression, e.g.
// (FUZZYVAR water (DESCDEF "tank level")).
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.IsLeaf() {
		if needsQuote(n.Text) {
			sb.WriteString(strconv.Quote(n.Text))
		} else {
			sb.WriteString(n.Text)
		}
		return
	}
	sb.WriteByte('(')
	sb.WriteString(string(n.Label))
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}

func needsQuote(s string) bool {
	return s == "" || strings.ContainsAny(s, " \t\n\"()")
}
