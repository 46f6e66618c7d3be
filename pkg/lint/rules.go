package lint

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fuzzrule/pkg/token"
)

func init() {
	Register(RuleDef{
		ID:          "FZ01",
		Name:        "unused-variable",
		Description: "Variable is not read or written by any rule",
		Severity:    SeverityWarning,
		Check:       checkUnusedVariable,
	})
	Register(RuleDef{
		ID:          "FZ02",
		Name:        "unused-set",
		Description: "Fuzzy set is not referenced by any rule",
		Severity:    SeverityHint,
		Check:       checkUnusedSet,
	})
	Register(RuleDef{
		ID:          "FZ03",
		Name:        "orphan-rule",
		Description: "Rule is not part of any ruleset and never fires",
		Severity:    SeverityWarning,
		Check:       checkOrphanRule,
	})
	Register(RuleDef{
		ID:          "FZ04",
		Name:        "unexecuted-ruleset",
		Description: "Ruleset is not the first ruleset of any execute statement, so it never runs",
		Severity:    SeverityWarning,
		Check:       checkUnexecutedRuleset,
	})
	Register(RuleDef{
		ID:          "FZ05",
		Name:        "discarded-executor",
		Description: "Only the last execute statement determines the result",
		Severity:    SeverityInfo,
		Check:       checkDiscardedExecutor,
	})
	Register(RuleDef{
		ID:          "FZ06",
		Name:        "ignored-attribute",
		Description: "Rule certainty, priority and weight do not affect inference",
		Severity:    SeverityHint,
		Check:       checkIgnoredAttribute,
	})
	Register(RuleDef{
		ID:          "FZ07",
		Name:        "no-executor",
		Description: "Program declares rules but never executes a ruleset",
		Severity:    SeverityWarning,
		Check:       checkNoExecutor,
	})
}

func checkUnusedVariable(p *Program) []Diagnostic {
	used := make(map[string]bool)
	for _, ref := range p.refs() {
		used[ref.Variable] = true
	}

	var diags []Diagnostic
	for _, v := range p.Variables {
		if !used[v.Name] {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("variable %s is not used by any rule", v.Name),
				Pos:     v.Pos,
			})
		}
	}
	return diags
}

func checkUnusedSet(p *Program) []Diagnostic {
	used := make(map[string]bool)
	for _, ref := range p.refs() {
		used[ref.Variable+"."+ref.Set] = true
	}

	var diags []Diagnostic
	for _, v := range p.Variables {
		for _, s := range v.Sets {
			if !used[v.Name+"."+s.Name] {
				diags = append(diags, Diagnostic{
					Message: fmt.Sprintf("set %s of variable %s is not used by any rule", s.Name, v.Name),
					Pos:     s.Pos,
				})
			}
		}
	}
	return diags
}

func checkOrphanRule(p *Program) []Diagnostic {
	named := make(map[string]bool)
	for _, rs := range p.Rulesets {
		for _, r := range rs.Rules {
			named[r] = true
		}
	}

	var diags []Diagnostic
	for _, r := range p.Rules {
		if named[r.Name] || collectedByAll(p, r) {
			continue
		}
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("rule %s is not part of any ruleset", r.Name),
			Pos:     r.Pos,
		})
	}
	return diags
}

// collectedByAll reports whether a "{ all }" ruleset follows r.
func collectedByAll(p *Program, r *Rule) bool {
	for _, rs := range p.Rulesets {
		if rs.All && before(r.Pos, rs.Pos) {
			return true
		}
	}
	return false
}

func checkUnexecutedRuleset(p *Program) []Diagnostic {
	// An executor runs only its first ruleset; later names are shadowed.
	executed := make(map[string]bool)
	shadowedBy := make(map[string]string)
	for _, e := range p.Executes {
		if len(e.Rulesets) == 0 {
			continue
		}
		executed[e.Rulesets[0]] = true
		for _, name := range e.Rulesets[1:] {
			if _, ok := shadowedBy[name]; !ok {
				shadowedBy[name] = e.Rulesets[0]
			}
		}
	}

	var diags []Diagnostic
	for _, rs := range p.Rulesets {
		if executed[rs.Name] {
			continue
		}
		msg := fmt.Sprintf("ruleset %s is never executed", rs.Name)
		if first, ok := shadowedBy[rs.Name]; ok {
			msg = fmt.Sprintf("ruleset %s is named after %s in execute and never runs", rs.Name, first)
		}
		diags = append(diags, Diagnostic{Message: msg, Pos: rs.Pos})
	}
	return diags
}

func checkDiscardedExecutor(p *Program) []Diagnostic {
	if len(p.Executes) < 2 {
		return nil
	}
	last := p.Executes[len(p.Executes)-1]

	var diags []Diagnostic
	for _, e := range p.Executes[:len(p.Executes)-1] {
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("result of execute %s is replaced by execute %s at line %d",
				strings.Join(e.Rulesets, ", "), strings.Join(last.Rulesets, ", "), last.Pos.Line),
			Pos: e.Pos,
		})
	}
	return diags
}

func checkIgnoredAttribute(p *Program) []Diagnostic {
	var diags []Diagnostic
	for _, r := range p.Rules {
		for _, a := range r.Attributes {
			diags = append(diags, Diagnostic{
				Message: fmt.Sprintf("%s %s of rule %s has no effect on inference", a.Name, a.Value, r.Name),
				Pos:     a.Pos,
			})
		}
	}
	return diags
}

func checkNoExecutor(p *Program) []Diagnostic {
	if len(p.Executes) > 0 || len(p.Rules) == 0 {
		return nil
	}
	return []Diagnostic{{
		Message: "program has no execute statement; its result is always 0",
		Pos:     p.Rules[0].Pos,
	}}
}

func before(a, b token.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
