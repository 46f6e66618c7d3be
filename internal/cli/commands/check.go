package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/leapstack-labs/fuzzrule/pkg/compiler"
	"github.com/leapstack-labs/fuzzrule/pkg/syntax"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when at least one file did not compile.
var ErrCheckFailed = errors.New("check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Parse and compile rule programs",
		Long: `Parse and compile each program and report whether it is valid.

Files are checked concurrently. Failures report the error kind and the
line of the offending declaration.`,
		Example: `  # Check one program
  fuzzrule check pump.fz

  # Check every program in a directory
  fuzzrule check rules/*.fz

  # Machine-readable results
  fuzzrule check rules/*.fz --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, paths []string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	results, err := engine.CheckFiles(cmd.Context(), paths, cmdCtx.Logger)
	if err != nil {
		return err
	}

	out := output.CheckOutput{Files: make([]output.CheckFile, 0, len(results))}
	for _, res := range results {
		f := output.CheckFile{
			Path:      res.Path,
			OK:        res.OK(),
			Variables: res.Variables,
			Rules:     res.Rules,
			Rulesets:  res.Rulesets,
			Executors: res.Executors,
		}
		if res.Err != nil {
			f.Kind, f.Line = errorKind(res.Err)
			f.Error = res.Err.Error()
			out.Summary.Failed++
		} else {
			out.Summary.Passed++
		}
		out.Files = append(out.Files, f)
	}
	out.Summary.Total = len(out.Files)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		checkMarkdown(r, out)
	default:
		checkText(r, out)
	}

	if out.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrCheckFailed, out.Summary.Failed, out.Summary.Total)
	}
	return nil
}

func checkText(r *output.Renderer, out output.CheckOutput) {
	for _, f := range out.Files {
		if f.OK {
			r.StatusLine(f.Path, output.StatusOK, fmt.Sprintf("%d variables, %d rules, %d rulesets",
				f.Variables, f.Rules, f.Rulesets))
			continue
		}
		r.StatusLine(f.Path, output.StatusFailed, f.Kind)
		r.Muted("    " + f.Error)
	}
	r.Println()
	summary := fmt.Sprintf("%d passed, %d failed", out.Summary.Passed, out.Summary.Failed)
	if out.Summary.Failed > 0 {
		r.Warning(summary)
		return
	}
	r.Success(summary)
}

func checkMarkdown(r *output.Renderer, out output.CheckOutput) {
	r.Header(1, fmt.Sprintf("Check (%d files)", out.Summary.Total))

	rows := make([][]string, 0, len(out.Files))
	for _, f := range out.Files {
		status := output.StatusOK
		detail := fmt.Sprintf("%d variables, %d rules, %d rulesets", f.Variables, f.Rules, f.Rulesets)
		if !f.OK {
			status = output.StatusFailed
			detail = f.Error
		}
		rows = append(rows, []string{f.Path, status, f.Kind, detail})
	}
	r.Table([]string{"File", "Status", "Kind", "Detail"}, rows)
	r.Println()
	r.Println(output.FormatKeyValue("Passed", strconv.Itoa(out.Summary.Passed)))
	r.Println(output.FormatKeyValue("Failed", strconv.Itoa(out.Summary.Failed)))
}

// errorKind classifies a load error for reporting.
func errorKind(err error) (string, int) {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Kind.String(), ce.Line
	}
	var se *syntax.SyntaxError
	if errors.As(err, &se) {
		return "syntax", se.Pos.Line
	}
	return "io", 0
}
