package engine

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CheckResult is the outcome of compiling one file.
type CheckResult struct {
	Path      string
	Err       error
	Variables int
	Rules     int
	Rulesets  int
	Executors int
}

// OK reports whether the file compiled.
func (r CheckResult) OK() bool {
	return r.Err == nil
}

// CheckFiles parses and compiles each file concurrently. Every file gets its
// own domain. Compile failures are reported per file; the returned error is
// only set when ctx is cancelled. Results keep the order of paths.
func CheckFiles(ctx context.Context, paths []string, logger *slog.Logger) ([]CheckResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := New(Config{Logger: logger})

	return forEachFile(ctx, paths, e.check)
}

// forEachFile runs fn on every path with at most GOMAXPROCS files in
// flight. Results keep the order of paths.
func forEachFile[T any](ctx context.Context, paths []string, fn func(string) T) ([]T, error) {
	results := make([]T, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) check(path string) CheckResult {
	res := CheckResult{Path: path}
	p, err := e.Load(path)
	if err != nil {
		e.logger.Debug("check failed", "path", path, "error", err)
		res.Err = err
		return res
	}

	m := p.Model()
	res.Variables = len(m.Variables())
	res.Rules = len(p.Rules())
	res.Rulesets = len(m.Rulesets())
	res.Executors = len(m.Executors())
	return res
}
