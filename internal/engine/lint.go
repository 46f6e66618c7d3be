package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/fuzzrule/pkg/lint"
	"github.com/leapstack-labs/fuzzrule/pkg/parser"
)

// LintResult is the outcome of linting one file. Err is set when the file
// could not be read or parsed.
type LintResult struct {
	Path        string
	Err         error
	Diagnostics []lint.Diagnostic
}

// LintFiles parses each file concurrently and runs the lint rules on it.
// Programs are not compiled, so semantic errors do not hide diagnostics.
// The returned error is only set when ctx is cancelled.
func LintFiles(ctx context.Context, paths []string, cfg *lint.Config, logger *slog.Logger) ([]LintResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	analyzer := lint.NewAnalyzer(cfg)

	return forEachFile(ctx, paths, func(path string) LintResult {
		res := LintResult{Path: path}
		src, err := os.ReadFile(path) //nolint:gosec // G304: path is the program the user asked to lint
		if err != nil {
			res.Err = fmt.Errorf("failed to read program: %w", err)
			return res
		}
		tree, err := parser.Parse(string(src))
		if err != nil {
			res.Err = fmt.Errorf("%s: %w", path, err)
			return res
		}
		res.Diagnostics = analyzer.Analyze(tree)
		logger.Debug("linted program", "path", path, "diagnostics", len(res.Diagnostics))
		return res
	})
}
