package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the variables, rules, rulesets and executors of a program",
		Long: `Compile a program and describe the model it produces.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Inspect a program
  fuzzrule inspect pump.fz

  # As JSON
  fuzzrule inspect pump.fz --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args)
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	path, err := programPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	prog, err := cmdCtx.Engine.Load(path)
	if err != nil {
		return err
	}

	out := inspectOutput(prog)
	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	inspectTables(r, out)
	return nil
}

func inspectOutput(prog *engine.Program) output.InspectOutput {
	m := prog.Model()
	out := output.InspectOutput{
		Program:   prog.Path,
		Variables: make([]output.VariableInfo, 0, len(m.Variables())),
		Rules:     []output.RuleInfo{},
		Rulesets:  make([]output.RulesetInfo, 0, len(m.Rulesets())),
		Executors: make([][]string, 0, len(m.Executors())),
	}

	for _, v := range m.Variables() {
		vi := output.VariableInfo{
			Name:        v.Name,
			Description: v.Description,
			Min:         v.Range.Min,
			Max:         v.Range.Max,
		}
		for _, s := range v.Sets() {
			si := output.SetInfo{Name: s.Name(), Weight: s.Weight()}
			if t, ok := s.(*fuzzy.Triangular); ok {
				si.Points = [3]float64{t.X0, t.X1, t.X2}
			}
			vi.Sets = append(vi.Sets, si)
		}
		out.Variables = append(out.Variables, vi)
	}

	for _, rule := range prog.Rules() {
		out.Rules = append(out.Rules, output.RuleInfo{
			Name:        rule.Name,
			Description: rule.Description,
			Priority:    rule.Priority,
			Certainty:   rule.Certainty,
			Weight:      rule.Weight,
			Text:        rule.String(),
		})
	}

	for _, rs := range m.Rulesets() {
		ri := output.RulesetInfo{Name: rs.Name, Description: rs.Description}
		for _, rule := range rs.Rules {
			ri.Rules = append(ri.Rules, rule.Name)
		}
		for _, v := range rs.Consequents() {
			ri.Consequents = append(ri.Consequents, v.Name)
		}
		out.Rulesets = append(out.Rulesets, ri)
	}

	for _, ex := range m.Executors() {
		names := make([]string, 0, len(ex.Rulesets))
		for _, rs := range ex.Rulesets {
			names = append(names, rs.Name)
		}
		out.Executors = append(out.Executors, names)
	}
	return out
}

func inspectTables(r *output.Renderer, out output.InspectOutput) {
	r.Header(1, out.Program)

	r.Header(2, output.Title("variables"))
	var rows [][]string
	for _, v := range out.Variables {
		sets := make([]string, 0, len(v.Sets))
		for _, s := range v.Sets {
			sets = append(sets, fmt.Sprintf("%s(%g, %g, %g)", s.Name, s.Points[0], s.Points[1], s.Points[2]))
		}
		rows = append(rows, []string{
			v.Name, fmt.Sprintf("[%g, %g]", v.Min, v.Max), strings.Join(sets, " "), v.Description,
		})
	}
	r.Table([]string{"Name", "Range", "Sets", "Description"}, rows)
	r.Println()

	r.Header(2, output.Title("rules"))
	rows = nil
	for _, rule := range out.Rules {
		rows = append(rows, []string{
			rule.Name, rule.Text, fmt.Sprintf("%d", rule.Priority),
			output.FormatNumber(rule.Certainty), output.FormatNumber(rule.Weight),
		})
	}
	r.Table([]string{"Name", "Rule", "Priority", "Certainty", "Weight"}, rows)
	r.Println()

	r.Header(2, output.Title("rulesets"))
	rows = nil
	for _, rs := range out.Rulesets {
		rows = append(rows, []string{rs.Name, strings.Join(rs.Rules, ", "), strings.Join(rs.Consequents, ", ")})
	}
	r.Table([]string{"Name", "Rules", "Consequents"}, rows)
	r.Println()

	r.Header(2, output.Title("executors"))
	rows = nil
	for i, ex := range out.Executors {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), strings.Join(ex, ", ")})
	}
	r.Table([]string{"#", "Rulesets"}, rows)
}
