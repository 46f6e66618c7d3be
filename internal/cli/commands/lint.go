package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/spf13/cobra"
)

// ErrLintFailed is returned when linting finds errors, or warnings in
// strict mode.
var ErrLintFailed = errors.New("lint failed")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Disable []string
	Strict  bool
	Rules   bool
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}

	cmd := &cobra.Command{
		Use:   "lint [file]...",
		Short: "Report unused declarations and other suspicious constructs",
		Long: `Parse each program and run the lint rules on it.

Programs are not compiled, so lint also reports on programs with semantic
errors. Rules can be disabled or given another severity in the lint
section of fuzzrule.yaml. The command fails when an error is reported,
or any warning with --strict.`,
		Example: `  # Lint a program
  fuzzrule lint pump.fz

  # List the lint rules
  fuzzrule lint --rules

  # Fail on warnings, ignoring unused sets
  fuzzrule lint rules/*.fz --strict --disable FZ02`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to skip (repeatable or comma separated)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on warnings as well as errors")
	cmd.Flags().BoolVar(&opts.Rules, "rules", false, "List the lint rules and exit")

	return cmd
}

func runLint(cmd *cobra.Command, args []string, opts *LintOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	if opts.Rules {
		return renderLintRules(r)
	}

	paths := args
	if len(paths) == 0 {
		path, err := programPath(cmdCtx.Cfg, nil)
		if err != nil {
			return err
		}
		paths = []string{path}
	}

	cfg, err := cmdCtx.Cfg.Lint.Analyzer()
	if err != nil {
		return err
	}
	cfg.Disable(opts.Disable...)
	for _, id := range cfg.Unknown() {
		cmdCtx.Logger.Warn("unknown lint rule in configuration", "rule", id)
	}

	results, err := engine.LintFiles(cmd.Context(), paths, cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	out := lintOutput(results)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		lintMarkdown(r, out)
	default:
		lintText(r, out)
	}

	failed := out.Summary.Errors
	if opts.Strict {
		failed += out.Summary.Warnings
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d errors, %d warnings", ErrLintFailed, out.Summary.Errors, out.Summary.Warnings)
	}
	return nil
}

func lintOutput(results []engine.LintResult) output.LintOutput {
	out := output.LintOutput{Files: make([]output.LintFile, 0, len(results))}
	for _, res := range results {
		f := output.LintFile{Path: res.Path, Diagnostics: []output.LintDiagnostic{}}
		if res.Err != nil {
			f.Error = res.Err.Error()
			out.Summary.Errors++
		}
		for _, d := range res.Diagnostics {
			name := ""
			if rule, ok := lint.Lookup(d.RuleID); ok {
				name = rule.Name
			}
			f.Diagnostics = append(f.Diagnostics, output.LintDiagnostic{
				Rule:     d.RuleID,
				Name:     name,
				Severity: d.Severity.String(),
				Line:     d.Pos.Line,
				Column:   d.Pos.Column,
				Message:  d.Message,
			})
			switch d.Severity {
			case lint.SeverityError:
				out.Summary.Errors++
			case lint.SeverityWarning:
				out.Summary.Warnings++
			case lint.SeverityInfo:
				out.Summary.Infos++
			default:
				out.Summary.Hints++
			}
		}
		out.Files = append(out.Files, f)
	}
	return out
}

func lintText(r *output.Renderer, out output.LintOutput) {
	styles := r.Styles()
	for _, f := range out.Files {
		if f.Error != "" {
			r.Error(f.Error)
			continue
		}
		for _, d := range f.Diagnostics {
			sev := d.Severity
			switch d.Severity {
			case "error":
				sev = styles.Error.Render(sev)
			case "warning":
				sev = styles.Warning.Render(sev)
			default:
				sev = styles.Muted.Render(sev)
			}
			r.Printf("%s:%d:%d: %s %s %s\n", f.Path, d.Line, d.Column, sev, d.Rule, d.Message)
		}
	}

	summary := lintSummary(out.Summary)
	if out.Summary.Errors > 0 || out.Summary.Warnings > 0 {
		r.Warning(summary)
		return
	}
	r.Success(summary)
}

func lintMarkdown(r *output.Renderer, out output.LintOutput) {
	r.Header(1, fmt.Sprintf("Lint (%d files)", len(out.Files)))

	var rows [][]string
	for _, f := range out.Files {
		if f.Error != "" {
			rows = append(rows, []string{f.Path, "", "error", "", f.Error})
			continue
		}
		for _, d := range f.Diagnostics {
			rows = append(rows, []string{f.Path, strconv.Itoa(d.Line), d.Severity, d.Rule, d.Message})
		}
	}
	r.Table([]string{"File", "Line", "Severity", "Rule", "Message"}, rows)
	r.Println()
	r.Println(output.FormatKeyValue("Summary", lintSummary(out.Summary)))
}

func lintSummary(s output.LintSummary) string {
	return fmt.Sprintf("%d errors, %d warnings, %d infos, %d hints", s.Errors, s.Warnings, s.Infos, s.Hints)
}

func renderLintRules(r *output.Renderer) error {
	rules := lint.Rules()
	infos := make([]output.LintRuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, output.LintRuleInfo{
			ID:          rule.ID,
			Name:        rule.Name,
			Severity:    rule.Severity.String(),
			Description: rule.Description,
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}
	r.Header(1, output.Title("lint rules"))
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.ID, info.Name, info.Severity, info.Description})
	}
	r.Table([]string{"ID", "Name", "Severity", "Description"}, rows)
	return nil
}
