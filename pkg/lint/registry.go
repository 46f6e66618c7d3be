package lint

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

var registry = struct {
	sync.RWMutex
	byID  map[string]RuleDef
	order []string // sorted IDs
}{byID: make(map[string]RuleDef)}

// Register makes a rule available to every Analyzer. It is meant to be
// called from init and panics on an empty or duplicate ID or a missing
// check, since either is a programming error.
func Register(rule RuleDef) {
	id := normalizeID(rule.ID)
	if id == "" || rule.Check == nil {
		panic(fmt.Sprintf("lint: invalid rule definition %q", rule.ID))
	}
	rule.ID = id

	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.byID[id]; dup {
		panic("lint: Register called twice for rule " + id)
	}
	registry.byID[id] = rule
	i, _ := slices.BinarySearch(registry.order, id)
	registry.order = slices.Insert(registry.order, i, id)
}

// Rules returns the registered rules ordered by ID.
func Rules() []RuleDef {
	registry.RLock()
	defer registry.RUnlock()

	rules := make([]RuleDef, 0, len(registry.order))
	for _, id := range registry.order {
		rules = append(rules, registry.byID[id])
	}
	return rules
}

// Lookup returns the rule with the given ID, matched case-insensitively.
func Lookup(id string) (RuleDef, bool) {
	registry.RLock()
	defer registry.RUnlock()
	rule, ok := registry.byID[strings.ToUpper(strings.TrimSpace(id))]
	return rule, ok
}
