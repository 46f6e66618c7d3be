package lint

import (
	"sort"
	"strings"
)

// Config selects rules and overrides their severity. Rule IDs are matched
// case-insensitively, so "fz03" and "FZ03" name the same rule.
type Config struct {
	disabled map[string]bool
	severity map[string]Severity
}

// NewConfig returns a configuration with every rule enabled at its default
// severity.
func NewConfig() *Config {
	return &Config{
		disabled: make(map[string]bool),
		severity: make(map[string]Severity),
	}
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Disable turns off the given rules.
func (c *Config) Disable(ids ...string) *Config {
	for _, id := range ids {
		c.disabled[normalizeID(id)] = true
	}
	return c
}

// SetSeverity reports findings of rule id with severity s.
func (c *Config) SetSeverity(id string, s Severity) *Config {
	c.severity[normalizeID(id)] = s
	return c
}

// Enabled reports whether rule id runs. A nil Config enables everything.
func (c *Config) Enabled(id string) bool {
	return c == nil || !c.disabled[normalizeID(id)]
}

// SeverityFor returns the configured severity of rule id, or fallback.
func (c *Config) SeverityFor(id string, fallback Severity) Severity {
	if c != nil {
		if s, ok := c.severity[normalizeID(id)]; ok {
			return s
		}
	}
	return fallback
}

// Unknown lists configured rule IDs that no registered rule has.
func (c *Config) Unknown() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	for id := range c.disabled {
		seen[id] = true
	}
	for id := range c.severity {
		seen[id] = true
	}
	var unknown []string
	for id := range seen {
		if _, ok := Lookup(id); !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return unknown
}
