package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/facts"
	"github.com/leapstack-labs/fuzzrule/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with --record, newest first.

Runs are stored in the SQLite database at state_path (default
.fuzzrule/history.db).`,
		Example: `  # Last 20 runs
  fuzzrule history

  # Every run as JSON
  fuzzrule history --limit 0 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	runs, err := cmdCtx.Engine.History(cmd.Context(), opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		out := output.HistoryOutput{Runs: make([]output.RunInfo, 0, len(runs))}
		for _, run := range runs {
			out.Runs = append(out.Runs, output.RunInfo{
				ID:          run.ID,
				Program:     run.Program,
				ProgramHash: run.ProgramHash,
				Facts:       run.Facts,
				Result:      run.Result,
				StartedAt:   run.StartedAt,
				DurationMS:  run.Duration.Milliseconds(),
				Status:      string(run.Status),
				Error:       run.Error,
			})
		}
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Runs (%d shown)", len(runs)))
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, historyRow(run))
	}
	r.Table([]string{"Started", "Program", "Facts", "Result", "Status", "ID"}, rows)
	return nil
}

func historyRow(run *state.Run) []string {
	f := facts.Facts(run.Facts)
	pairs := make([]string, 0, len(f))
	for _, name := range f.Names() {
		pairs = append(pairs, name+"="+output.FormatNumber(f[name]))
	}

	status := string(run.Status)
	if run.Error != "" {
		status += ": " + run.Error
	}
	return []string{
		run.StartedAt.Local().Format(time.DateTime),
		run.Program,
		strings.Join(pairs, " "),
		output.FormatNumber(run.Result),
		status,
		run.ID,
	}
}
