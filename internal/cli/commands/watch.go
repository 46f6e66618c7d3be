package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Set      []string
	Explain  bool
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-run a program whenever it changes",
		Long: `Compile and run a program, then run it again each time the file is saved.

Compile errors are reported and the previous result stays on screen until
the program compiles again. Press Ctrl+C to stop.`,
		Example: `  fuzzrule watch pump.fz --set water=10 --explain`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "Ground a variable (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "Show rule firings and ruleset results")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", engine.DefaultDebounce, "Quiet period before re-running")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *WatchOptions) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()
	r := cmdCtx.Renderer

	path, err := programPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	f, err := collectFacts(cmdCtx.Cfg, opts.Set)
	if err != nil {
		return err
	}

	w, err := engine.NewWatcher(path, opts.Debounce, cmdCtx.Logger)
	if err != nil {
		return err
	}

	rerun := func() {
		prog, err := cmdCtx.Engine.Load(path)
		if err != nil {
			r.Error(err.Error())
			return
		}
		res, err := cmdCtx.Engine.Run(cmd.Context(), prog, f)
		if err != nil {
			r.Error(err.Error())
			return
		}
		renderRun(r, res, opts.Explain)
	}

	rerun()
	r.Muted(fmt.Sprintf("watching %s (Ctrl+C to stop)", path))
	return w.Run(cmd.Context(), func() {
		r.Println()
		r.Muted(time.Now().Format(time.TimeOnly) + " change detected")
		rerun()
	})
}
