package commands

import (
	"fmt"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/config"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Set     []string
	Explain bool
	Record  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Compile a program, ground facts and execute it",
		Long: `Compile a rule program, ground its input variables and execute it.

Facts are merged from, lowest precedence first: the facts file (--facts or
facts_file), facts in the config file and the selected profile, and --set.
The program defaults to the program entry of the config file.`,
		Example: `  # Run with a single fact
  fuzzrule run pump.fz --set water=10

  # Run with a facts file and show which rules fired
  fuzzrule run pump.fz --facts facts.yaml --explain

  # Record the run in the history database
  fuzzrule run --set water=10 --record`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "Ground a variable (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Show rule firings and ruleset results")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "Record the run in the history database")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	if cmd.Flags().Changed("record") {
		cfg := *config.FromContext(cmd.Context())
		cfg.Record = opts.Record
		cmd.SetContext(config.WithConfig(cmd.Context(), &cfg))
	}

	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	path, err := programPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	f, err := collectFacts(cmdCtx.Cfg, opts.Set)
	if err != nil {
		return err
	}

	prog, err := cmdCtx.Engine.Load(path)
	if err != nil {
		return err
	}
	res, err := cmdCtx.Engine.Run(cmd.Context(), prog, f)
	if err != nil {
		return err
	}

	renderRun(cmdCtx.Renderer, res, opts.Explain)
	return nil
}

// renderRun writes a run result in the renderer's mode. JSON always
// includes the trace.
func renderRun(r *output.Renderer, res *engine.RunResult, explain bool) {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		_ = r.JSON(runOutput(res))
	case output.ModeMarkdown:
		runMarkdown(r, res, explain)
	default:
		runText(r, res, explain)
	}
}

func runOutput(res *engine.RunResult) output.RunOutput {
	out := output.RunOutput{
		RunID:      res.RunID,
		Program:    res.Program,
		Facts:      res.Facts,
		Result:     res.Result,
		DurationMS: res.Duration.Milliseconds(),
	}
	if out.Facts == nil {
		out.Facts = map[string]float64{}
	}
	for _, f := range res.Firings {
		out.Firings = append(out.Firings, output.FiringInfo{
			Ruleset:  f.Ruleset,
			Rule:     f.Rule,
			Strength: f.Strength,
			Applied:  f.Applied,
			Target:   f.Variable + " is " + f.Set,
		})
	}
	for _, rr := range res.Results {
		out.Rulesets = append(out.Rulesets, output.RulesetResult{Ruleset: rr.Ruleset, Result: rr.Result})
	}
	return out
}

func runText(r *output.Renderer, res *engine.RunResult, explain bool) {
	styles := r.Styles()
	r.Printf("%s %s\n", styles.Bold.Render("Result:"), styles.Value.Render(output.FormatNumber(res.Result)))
	if res.RunID != "" {
		r.Muted("run " + res.RunID)
	}
	if explain {
		r.Println()
		explainTables(r, res)
	}
}

func runMarkdown(r *output.Renderer, res *engine.RunResult, explain bool) {
	r.Header(1, "Run "+res.Program)
	r.Println(output.FormatKeyValue("Result", output.FormatNumber(res.Result)))
	for _, name := range res.Facts.Names() {
		r.Println(output.FormatKeyValue(name, output.FormatNumber(res.Facts[name])))
	}
	if res.RunID != "" {
		r.Println(output.FormatKeyValue("Run", res.RunID))
	}
	if explain {
		r.Println()
		explainTables(r, res)
	}
}

func explainTables(r *output.Renderer, res *engine.RunResult) {
	r.Header(2, output.Title("rule firings"))
	rows := make([][]string, 0, len(res.Firings))
	for _, f := range res.Firings {
		applied := "no"
		if f.Applied {
			applied = "yes"
		}
		rows = append(rows, []string{
			f.Ruleset, f.Rule, f.Variable + " is " + f.Set,
			fmt.Sprintf("%.4g", f.Strength), applied,
		})
	}
	r.Table([]string{"Ruleset", "Rule", "Consequent", "Strength", "Applied"}, rows)
	r.Println()

	r.Header(2, output.Title("ruleset results"))
	rows = rows[:0]
	for _, rr := range res.Results {
		rows = append(rows, []string{rr.Ruleset, output.FormatNumber(rr.Result)})
	}
	r.Table([]string{"Ruleset", "Result"}, rows)
}
