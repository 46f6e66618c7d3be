package fuzzy

import "fmt"

// Model is a compiled program: variables, rulesets and executors.
// It is not safe for concurrent use.
type Model struct {
	variables    map[string]*Variable
	variableList []*Variable
	rulesets     map[string]*Ruleset
	rulesetList  []*Ruleset
	executors    []*Executor

	hooks *Hooks
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		variables: make(map[string]*Variable),
		rulesets:  make(map[string]*Ruleset),
	}
}

// AddVariable registers v. Variable names are unique.
func (m *Model) AddVariable(v *Variable) error {
	if _, ok := m.variables[v.Name]; ok {
		return fmt.Errorf("%w: variable %s", ErrDuplicateName, v.Name)
	}
	m.variables[v.Name] = v
	m.variableList = append(m.variableList, v)
	return nil
}

// AddRuleset registers rs. Ruleset names are unique.
func (m *Model) AddRuleset(rs *Ruleset) error {
	if _, ok := m.rulesets[rs.Name]; ok {
		return fmt.Errorf("%w: ruleset %s", ErrDuplicateName, rs.Name)
	}
	m.rulesets[rs.Name] = rs
	m.rulesetList = append(m.rulesetList, rs)
	return nil
}

// AddExecutor appends e to the executors run by Execute.
func (m *Model) AddExecutor(e *Executor) {
	m.executors = append(m.executors, e)
}

// Variable looks up a variable by name.
func (m *Model) Variable(name string) (*Variable, bool) {
	v, ok := m.variables[name]
	return v, ok
}

// Variables returns the variables in declaration order.
func (m *Model) Variables() []*Variable {
	return m.variableList
}

// Ruleset looks up a ruleset by name.
func (m *Model) Ruleset(name string) (*Ruleset, bool) {
	rs, ok := m.rulesets[name]
	return rs, ok
}

// Rulesets returns the rulesets in declaration order.
func (m *Model) Rulesets() []*Ruleset {
	return m.rulesetList
}

// Executors returns the executors in declaration order.
func (m *Model) Executors() []*Executor {
	return m.executors
}

// SetHooks installs inference observers. Passing nil removes them.
func (m *Model) SetHooks(h *Hooks) {
	m.hooks = h
}

// Ground sets the crisp value of the named variable.
func (m *Model) Ground(name string, value float64) error {
	v, ok := m.variables[name]
	if !ok {
		return &UndefinedVariableError{Name: name}
	}
	v.SetGround(value)
	return nil
}

// Execute runs every executor in order and returns the result of the last
// one. Earlier results are computed and discarded. A model without
// executors yields zero.
//
// Set weights written by earlier executions are not cleared, so executing
// again without re-grounding can return a stale centroid.
func (m *Model) Execute() float64 {
	var result float64
	for _, e := range m.executors {
		result = e.execute(m.hooks)
	}
	return result
}

// ResetWeights clears the weight of every set.
func (m *Model) ResetWeights() {
	for _, v := range m.variableList {
		for _, s := range v.Sets() {
			s.SetWeight(0)
		}
	}
}
