package engine

// run.go - grounding, execution and run recording

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/fuzzrule/internal/facts"
	"github.com/leapstack-labs/fuzzrule/internal/state"
	"github.com/leapstack-labs/fuzzrule/pkg/domain"
)

// RunResult is the outcome of one execution.
type RunResult struct {
	RunID     string
	Program   string
	Facts     facts.Facts
	Result    float64
	Firings   []domain.Firing
	Results   []domain.RulesetResult
	StartedAt time.Time
	Duration  time.Duration
}

// Run grounds f in name order, executes the program and, when recording is
// enabled, stores the run. A run that fails to ground is recorded as failed.
func (e *Engine) Run(ctx context.Context, p *Program, f facts.Facts) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &RunResult{
		Program:   p.Path,
		Facts:     f,
		StartedAt: time.Now().UTC(),
	}

	e.logger.Info("starting run", "program", p.Path, "facts", len(f))

	p.Trace.Reset()
	runErr := e.ground(p, f)
	if runErr == nil {
		res.Result = p.Domain.Execute()
		res.Firings = p.Trace.Firings
		res.Results = p.Trace.Results
	}
	res.Duration = time.Since(res.StartedAt)

	if runErr != nil {
		e.logger.Info("run failed", "program", p.Path, "error", runErr.Error())
	} else {
		e.logger.Info("run completed", "program", p.Path, "result", res.Result)
	}

	if e.record {
		if err := e.recordRun(ctx, p, res, runErr); err != nil {
			return res, errors.Join(runErr, err)
		}
	}
	return res, runErr
}

func (e *Engine) ground(p *Program, f facts.Facts) error {
	for _, name := range f.Names() {
		if err := p.Domain.Ground(name, f[name]); err != nil {
			return fmt.Errorf("failed to ground %s: %w", name, err)
		}
	}
	return nil
}

func (e *Engine) recordRun(ctx context.Context, p *Program, res *RunResult, runErr error) error {
	store, err := e.ensureStore()
	if err != nil {
		return err
	}

	run := &state.Run{
		Program:     p.Path,
		ProgramHash: p.Hash,
		Facts:       res.Facts,
		Result:      res.Result,
		StartedAt:   res.StartedAt,
		Duration:    res.Duration,
		Status:      state.RunStatusSuccess,
	}
	if runErr != nil {
		run.Status = state.RunStatusFailed
		run.Error = runErr.Error()
	}
	if err := store.RecordRun(ctx, run); err != nil {
		return err
	}

	res.RunID = run.ID
	e.logger.Debug("recorded run", "run_id", run.ID)
	return nil
}
