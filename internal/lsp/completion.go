package lsp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

var (
	setContext      = regexp.MustCompile(`(\w+)\s+is\s+\w*$`)
	variableContext = regexp.MustCompile(`\b(when|and|or|then)\s+\w*$`)
	executeContext  = regexp.MustCompile(`^\s*execute\b[\w\s,]*$`)
	rulesetContext  = regexp.MustCompile(`\bruleset\s+\w+\s*\{[^}]*$`)
	setReference    = regexp.MustCompile(`(\w+)\s+is\s+$`)
)

func (s *Server) getCompletions(params CompletionParams) *CompletionList {
	list := &CompletionList{Items: []CompletionItem{}}
	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return list
	}

	before := doc.LinePrefix(params.Position)
	partial := before[len(strings.TrimRightFunc(before, func(r rune) bool { return r < 128 && isWordChar(byte(r)) })):]
	idx := doc.Index
	if idx == nil {
		idx = &lint.Program{}
	}

	add := func(label string, kind CompletionItemKind, detail string) {
		if strings.HasPrefix(label, partial) {
			list.Items = append(list.Items, CompletionItem{Label: label, Kind: kind, Detail: detail})
		}
	}

	switch {
	case setContext.MatchString(before):
		name := setContext.FindStringSubmatch(before)[1]
		if v := findVariable(idx, name); v != nil {
			for _, set := range v.Sets {
				add(set.Name, CompletionItemKindEnum, "set of "+v.Name)
			}
		}
	case variableContext.MatchString(before):
		for _, v := range idx.Variables {
			add(v.Name, CompletionItemKindVariable, "fuzzyvar")
		}
	case executeContext.MatchString(before):
		for _, rs := range idx.Rulesets {
			add(rs.Name, CompletionItemKindModule, "ruleset")
		}
	case rulesetContext.MatchString(before):
		add("all", CompletionItemKindKeyword, "rules declared so far")
		for _, r := range idx.Rules {
			add(r.Name, CompletionItemKindFunction, "rule")
		}
	default:
		for _, kw := range token.Keywords() {
			add(kw, CompletionItemKindKeyword, "keyword")
		}
	}
	return list
}

// symbolKind tells what a name under the cursor refers to.
type symbolKind int

const (
	symbolVariable symbolKind = iota + 1
	symbolSet
	symbolRule
	symbolRuleset
)

type symbol struct {
	kind     symbolKind
	name     string
	variable *lint.Variable // owner of a set, or the variable itself
	rule     *lint.Rule
	ruleset  *lint.Ruleset
	pos      token.Position
	rng      Range
}

// resolve finds the declaration the word under pos refers to.
func resolve(doc *Document, pos Position) *symbol {
	if doc == nil || doc.Index == nil {
		return nil
	}
	word, rng := doc.WordAt(pos)
	if word == "" {
		return nil
	}
	idx := doc.Index

	if m := setReference.FindStringSubmatch(doc.LinePrefix(rng.Start)); m != nil {
		if v := findVariable(idx, m[1]); v != nil {
			if set := findSet(v, word); set != nil {
				return &symbol{kind: symbolSet, name: word, variable: v, pos: set.Pos, rng: rng}
			}
		}
	}
	if v := findVariable(idx, word); v != nil {
		return &symbol{kind: symbolVariable, name: word, variable: v, pos: v.Pos, rng: rng}
	}
	for _, r := range idx.Rules {
		if r.Name == word {
			return &symbol{kind: symbolRule, name: word, rule: r, pos: r.Pos, rng: rng}
		}
	}
	for _, rs := range idx.Rulesets {
		if rs.Name == word {
			return &symbol{kind: symbolRuleset, name: word, ruleset: rs, pos: rs.Pos, rng: rng}
		}
	}

	// A set name inside a fuzzyvar block belongs to the enclosing variable.
	line := int(pos.Line) + 1
	var owner *lint.Variable
	for _, v := range idx.Variables {
		if v.Pos.Line <= line && findSet(v, word) != nil {
			owner = v
		}
	}
	if owner != nil {
		return &symbol{kind: symbolSet, name: word, variable: owner, pos: findSet(owner, word).Pos, rng: rng}
	}
	return nil
}

func findVariable(idx *lint.Program, name string) *lint.Variable {
	for _, v := range idx.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func findSet(v *lint.Variable, name string) *lint.Set {
	for _, set := range v.Sets {
		if set.Name == name {
			return set
		}
	}
	return nil
}

func (s *Server) getHover(params HoverParams) *Hover {
	doc := s.documents.Get(params.TextDocument.URI)
	sym := resolve(doc, params.Position)
	if sym == nil {
		return nil
	}

	var b strings.Builder
	switch sym.kind {
	case symbolVariable:
		hoverVariable(&b, doc.Model, sym.variable)
	case symbolSet:
		hoverSet(&b, doc.Model, sym.variable.Name, sym.name)
	case symbolRule:
		hoverRule(&b, sym.rule)
	case symbolRuleset:
		hoverRuleset(&b, sym.ruleset)
	}

	rng := sym.rng
	return &Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: b.String()},
		Range:    &rng,
	}
}

func hoverVariable(b *strings.Builder, model *fuzzy.Model, v *lint.Variable) {
	var mv *fuzzy.Variable
	if model != nil {
		mv, _ = model.Variable(v.Name)
	}
	if mv == nil {
		fmt.Fprintf(b, "**fuzzyvar** `%s`\n", v.Name)
		for _, set := range v.Sets {
			fmt.Fprintf(b, "\n- `%s`", set.Name)
		}
		return
	}

	fmt.Fprintf(b, "```\nfuzzyvar %s range (%g, %g)\n```\n", mv.Name, mv.Range.Min, mv.Range.Max)
	if mv.Description != "" {
		fmt.Fprintf(b, "\n%s\n", mv.Description)
	}
	for _, set := range mv.Sets() {
		fmt.Fprintf(b, "\n- `%s`%s", set.Name(), setParams(set))
	}
}

func hoverSet(b *strings.Builder, model *fuzzy.Model, variable, name string) {
	fmt.Fprintf(b, "```\n%s is %s\n```\n", variable, name)
	if model == nil {
		return
	}
	if v, ok := model.Variable(variable); ok {
		if set, ok := v.Set(name); ok {
			fmt.Fprintf(b, "\ntriangle%s, representative %g\n", setParams(set), set.Representative())
		}
	}
}

func setParams(set fuzzy.Set) string {
	if t, ok := set.(*fuzzy.Triangular); ok {
		return fmt.Sprintf(" (%g, %g, %g)", t.X0, t.X1, t.X2)
	}
	return ""
}

func hoverRule(b *strings.Builder, r *lint.Rule) {
	fmt.Fprintf(b, "**rule** `%s`\n\n", r.Name)
	for _, a := range r.Antecedents {
		fmt.Fprintf(b, "- when `%s is %s`\n", a.Variable, a.Set)
	}
	if r.Consequent.Variable != "" {
		fmt.Fprintf(b, "- then `%s is %s`\n", r.Consequent.Variable, r.Consequent.Set)
	}
}

func hoverRuleset(b *strings.Builder, rs *lint.Ruleset) {
	fmt.Fprintf(b, "**ruleset** `%s`\n\n", rs.Name)
	if rs.All {
		b.WriteString("every rule declared before it and not yet collected\n")
		return
	}
	fmt.Fprintf(b, "rules: %s\n", strings.Join(rs.Rules, ", "))
}

func (s *Server) getDefinition(params DefinitionParams) *Location {
	doc := s.documents.Get(params.TextDocument.URI)
	sym := resolve(doc, params.Position)
	if sym == nil || !sym.pos.IsValid() {
		return nil
	}
	start := toPosition(sym.pos)
	return &Location{URI: doc.URI, Range: Range{Start: start, End: start}}
}
