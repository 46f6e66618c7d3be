package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

// shapes maps the set shape letters to their leaf text.
var shapes = map[string]string{
	"s": syntax.ShapeS,
	"z": syntax.ShapeZ,
	"p": syntax.ShapeP,
}

// ---------- Variables ----------

// parseFuzzyVar parses:
//
//	fuzzyvar ident [range (num, num)] [desc string] { setdef* }
func (p *Parser) parseFuzzyVar() *syntax.Node {
	node := syntax.NewNode(syntax.FuzzyVar, p.token.Pos)
	p.nextToken() // consume FUZZYVAR

	name := p.expectIdent()
	if name == nil {
		return nil
	}
	node.Add(name)

	if p.check(token.RANGE) {
		rng := syntax.NewNode(syntax.FuzzyRangeDef, p.token.Pos)
		p.nextToken()
		if !p.expect(token.LPAREN) {
			return nil
		}
		lo := p.expectNumber()
		if lo == nil || !p.expect(token.COMMA) {
			return nil
		}
		hi := p.expectNumber()
		if hi == nil || !p.expect(token.RPAREN) {
			return nil
		}
		rng.Add(lo, hi)
		node.Add(rng)
	}

	if p.check(token.DESC) {
		desc := p.parseDesc()
		if desc == nil {
			return nil
		}
		node.Add(desc)
	}

	if !p.expect(token.LBRACE) {
		return nil
	}
	for !p.check(token.RBRACE) {
		set := p.parseSetDef()
		if set == nil {
			return nil
		}
		node.Add(set)
	}
	p.nextToken() // consume }

	return node
}

// parseSetDef parses:
//
//	(S|Z|P) ident ( num, num [, num] ) ;
func (p *Parser) parseSetDef() *syntax.Node {
	if !p.check(token.IDENT) {
		p.unexpected("set shape S, Z or P")
		return nil
	}
	shape, ok := shapes[strings.ToLower(p.token.Literal)]
	if !ok {
		p.addError(fmt.Sprintf(syntax.ErrUnknownShape, p.token.Literal))
		return nil
	}
	node := syntax.NewNode(syntax.FuzzySetDef, p.token.Pos, syntax.NewLeaf(shape, p.token.Pos))
	p.nextToken()

	name := p.expectIdent()
	if name == nil || !p.expect(token.LPAREN) {
		return nil
	}
	node.Add(name)

	first := p.expectNumber()
	if first == nil {
		return nil
	}
	node.Add(first)
	for p.match(token.COMMA) {
		num := p.expectNumber()
		if num == nil {
			return nil
		}
		node.Add(num)
	}
	if !p.expect(token.RPAREN) || !p.expect(token.SEMICOLON) {
		return nil
	}

	// shape, name and two or three parameters
	if n := node.ChildCount(); n < 4 || n > 5 {
		p.errors = append(p.errors, &syntax.SyntaxError{
			Pos:     node.Pos,
			Token:   name.Text,
			Message: fmt.Sprintf("fuzzy set %s takes 2 or 3 parameters, got %d", name.Text, n-2),
		})
		return nil
	}
	return node
}

// parseDesc parses: desc string
func (p *Parser) parseDesc() *syntax.Node {
	node := syntax.NewNode(syntax.DescDef, p.token.Pos)
	p.nextToken() // consume DESC
	text := p.expectString()
	if text == nil {
		return nil
	}
	node.Add(text)
	return node
}

// ---------- Rules ----------

// parseRule parses:
//
//	rule ident { certainty num | priority num | weight num | desc string }
//	    when cond { (and|or) cond } then ident is ident ;
func (p *Parser) parseRule() *syntax.Node {
	node := syntax.NewNode(syntax.RuleDef, p.token.Pos)
	p.nextToken() // consume RULE

	name := p.expectIdent()
	if name == nil {
		return nil
	}
	node.Add(name)

	for !p.check(token.WHEN) {
		var attr *syntax.Node
		switch p.token.Type {
		case token.CERTAINTY:
			attr = p.parseNumericAttr(syntax.CertaintyDef)
		case token.PRIORITY:
			attr = p.parseNumericAttr(syntax.PriorityDef)
		case token.WEIGHT:
			attr = p.parseNumericAttr(syntax.WeightDef)
		case token.DESC:
			attr = p.parseDesc()
		default:
			p.unexpected("CERTAINTY, PRIORITY, WEIGHT, DESC or WHEN")
		}
		if attr == nil {
			return nil
		}
		node.Add(attr)
	}

	when := p.parseWhen()
	if when == nil {
		return nil
	}
	node.Add(when)
	return node
}

// parseNumericAttr parses: keyword num
func (p *Parser) parseNumericAttr(label syntax.Label) *syntax.Node {
	node := syntax.NewNode(label, p.token.Pos)
	p.nextToken() // consume keyword
	num := p.expectNumber()
	if num == nil {
		return nil
	}
	node.Add(num)
	return node
}

// parseWhen parses the WHEN clause into WHENDEF(ANTECEDENTSDEF, CONSEQUENTDEF).
func (p *Parser) parseWhen() *syntax.Node {
	when := syntax.NewNode(syntax.WhenDef, p.token.Pos)
	p.nextToken() // consume WHEN

	antecedents := syntax.NewNode(syntax.AntecedentsDef, p.token.Pos)
	cond := p.parseAssignment(syntax.AntecedentDef)
	if cond == nil {
		return nil
	}
	antecedents.Add(cond)

	for p.check(token.AND) || p.check(token.OR) {
		op := syntax.NewNode(syntax.OperatorDef, p.token.Pos, syntax.NewLeaf(strings.ToLower(p.token.Literal), p.token.Pos))
		p.nextToken()
		cond := p.parseAssignment(syntax.AntecedentDef)
		if cond == nil {
			return nil
		}
		antecedents.Add(op, cond)
	}

	if !p.expect(token.THEN) {
		return nil
	}
	consequent := p.parseAssignment(syntax.ConsequentDef)
	if consequent == nil || !p.expect(token.SEMICOLON) {
		return nil
	}

	when.Add(antecedents, consequent)
	return when
}

// parseAssignment parses: ident is ident
func (p *Parser) parseAssignment(label syntax.Label) *syntax.Node {
	node := syntax.NewNode(label, p.token.Pos)
	variable := p.expectIdent()
	if variable == nil || !p.expect(token.IS) {
		return nil
	}
	set := p.expectIdent()
	if set == nil {
		return nil
	}
	node.Add(variable, set)
	return node
}

// ---------- Rulesets and executors ----------

// parseRuleset parses:
//
//	ruleset ident [desc string] { all | ident {, ident} }
func (p *Parser) parseRuleset() *syntax.Node {
	node := syntax.NewNode(syntax.RulesetDef, p.token.Pos)
	p.nextToken() // consume RULESET

	name := p.expectIdent()
	if name == nil {
		return nil
	}
	node.Add(name)

	if p.check(token.DESC) {
		desc := p.parseDesc()
		if desc == nil {
			return nil
		}
		node.Add(desc)
	}

	if !p.expect(token.LBRACE) {
		return nil
	}

	if p.check(token.ALL) {
		node.Add(syntax.NewNode(syntax.RuleCollectionAll, p.token.Pos))
		p.nextToken()
	} else {
		coll := syntax.NewNode(syntax.RuleCollectionNamed, p.token.Pos)
		names := p.parseNameList()
		if names == nil {
			return nil
		}
		coll.Add(names...)
		node.Add(coll)
	}

	if !p.expect(token.RBRACE) {
		return nil
	}
	return node
}

// parseExecute parses: execute ident {, ident} ;
func (p *Parser) parseExecute() *syntax.Node {
	node := syntax.NewNode(syntax.ExecuteDef, p.token.Pos)
	p.nextToken() // consume EXECUTE

	names := p.parseNameList()
	if names == nil || !p.expect(token.SEMICOLON) {
		return nil
	}
	node.Add(names...)
	return node
}

// parseNameList parses: ident {, ident}
func (p *Parser) parseNameList() []*syntax.Node {
	first := p.expectIdent()
	if first == nil {
		return nil
	}
	names := []*syntax.Node{first}
	for p.match(token.COMMA) {
		name := p.expectIdent()
		if name == nil {
			return nil
		}
		names = append(names, name)
	}
	return names
}
