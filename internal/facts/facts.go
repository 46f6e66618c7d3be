// Package facts reads crisp input values for a rule program. Facts come
// from a YAML file, the config file and repeated --set name=value flags,
// merged in that order.
package facts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Facts maps variable names to crisp values.
type Facts map[string]float64

// FactError reports an invalid entry in a facts file.
type FactError struct {
	Name    string
	Line    int
	Message string
}

func (e *FactError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("fact %q at line %d: %s", e.Name, e.Line, e.Message)
	}
	return fmt.Sprintf("fact %q: %s", e.Name, e.Message)
}

// LoadFile reads a facts file.
func LoadFile(path string) (Facts, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode facts file %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a YAML mapping of variable names to numbers. Non-numeric
// values and nested structures are rejected.
func Decode(r io.Reader) (Facts, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Facts{}, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return Facts{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("facts must be a mapping of names to numbers, got %s at line %d", kindName(root.Kind), root.Line)
	}

	f := make(Facts, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if _, dup := f[key.Value]; dup {
			return nil, &FactError{Name: key.Value, Line: key.Line, Message: "declared twice"}
		}
		v, err := number(val)
		if err != nil {
			return nil, &FactError{Name: key.Value, Line: val.Line, Message: err.Error()}
		}
		f[key.Value] = v
	}
	return f, nil
}

func number(n *yaml.Node) (float64, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("expected a number, got %s", kindName(n.Kind))
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
	default:
		return 0, fmt.Errorf("expected a number, got %q", n.Value)
	}
	var v float64
	if err := n.Decode(&v); err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", n.Value)
	}
	return v, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "a scalar"
	}
}

// ParseAssignment parses "name=value".
func ParseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("invalid assignment %q, expected name=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", 0, fmt.Errorf("invalid value in assignment %q: not a finite number", s)
	}
	return name, v, nil
}

// ParseAssignments parses a list of "name=value" pairs. Later pairs win.
func ParseAssignments(pairs []string) (Facts, error) {
	f := make(Facts, len(pairs))
	for _, p := range pairs {
		name, v, err := ParseAssignment(p)
		if err != nil {
			return nil, err
		}
		f[name] = v
	}
	return f, nil
}

// Merge combines layers; values in later layers override earlier ones.
func Merge(layers ...map[string]float64) Facts {
	out := Facts{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

// Names returns the fact names in sorted order, which is also the order
// facts are grounded in.
func (f Facts) Names() []string {
	return slices.Sorted(maps.Keys(f))
}
