package fuzzy

// Hooks observe inference. Nil fields are skipped; hooks never change
// results.
type Hooks struct {
	// OnRuleFired is called for every rule with its strength and whether the
	// strength was written onto the consequent set.
	OnRuleFired func(rule *Rule, strength float64, applied bool)
	// OnRulesetExecuted is called with the value a ruleset returned.
	OnRulesetExecuted func(ruleset *Ruleset, result float64)
}

func (h *Hooks) ruleFired(r *Rule, strength float64, applied bool) {
	if h != nil && h.OnRuleFired != nil {
		h.OnRuleFired(r, strength, applied)
	}
}

func (h *Hooks) rulesetExecuted(rs *Ruleset, result float64) {
	if h != nil && h.OnRulesetExecuted != nil {
		h.OnRulesetExecuted(rs, result)
	}
}

// Ruleset is an ordered group of rules executed together.
type Ruleset struct {
	Name        string
	Description string
	Rules       []*Rule

	consequents []*Variable
}

// NewRuleset creates a ruleset over rules. Call Finalize before executing.
func NewRuleset(name, description string, rules []*Rule) *Ruleset {
	return &Ruleset{Name: name, Description: description, Rules: rules}
}

// Finalize records the distinct consequent variables of the rules in the
// order they first appear.
func (rs *Ruleset) Finalize() {
	rs.consequents = rs.consequents[:0]
	seen := make(map[*Variable]bool)
	for _, r := range rs.Rules {
		v := r.Consequent.Variable
		if !seen[v] {
			seen[v] = true
			rs.consequents = append(rs.consequents, v)
		}
	}
}

// Consequents returns the variables recorded by Finalize.
func (rs *Ruleset) Consequents() []*Variable {
	return rs.consequents
}

// Execute fires the rules in order. A strength above the consequent
// variable's ground value overwrites the consequent set's weight, so the
// last qualifying rule for a set wins. The result is the centroid of the
// first consequent variable carrying any weight, or zero.
func (rs *Ruleset) Execute() float64 {
	return rs.execute(nil)
}

func (rs *Ruleset) execute(h *Hooks) float64 {
	for _, r := range rs.Rules {
		strength := r.Fire()
		applied := strength > r.Consequent.Variable.Ground()
		if applied {
			r.Consequent.Set.SetWeight(strength)
		}
		h.ruleFired(r, strength, applied)
	}

	var result float64
	for _, v := range rs.consequents {
		if v.WeightSum() != 0 {
			result = v.Defuzzify()
			break
		}
	}
	h.rulesetExecuted(rs, result)
	return result
}

// Executor runs rulesets named by an execute statement.
type Executor struct {
	Rulesets []*Ruleset
}

// Execute returns the result of the first ruleset. The remaining rulesets
// are not run; an empty executor yields zero.
func (e *Executor) Execute() float64 {
	return e.execute(nil)
}

func (e *Executor) execute(h *Hooks) float64 {
	if len(e.Rulesets) == 0 {
		return 0
	}
	return e.Rulesets[0].execute(h)
}
