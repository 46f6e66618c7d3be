package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/leapstack-labs/fuzzrule/internal/config"
	"github.com/leapstack-labs/fuzzrule/internal/engine"
	"github.com/leapstack-labs/fuzzrule/internal/facts"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func()) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	eng := engine.New(engine.Config{
		StatePath: cmdCtx.Cfg.StatePath,
		Record:    cmdCtx.Cfg.Record,
		Logger:    cmdCtx.Logger,
	})
	cmdCtx.Engine = eng

	cleanup := func() {
		if err := eng.Close(); err != nil {
			cmdCtx.Logger.Warn("failed to close engine", "error", err)
		}
	}
	return cmdCtx, cleanup
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// programPath returns the program from args, falling back to the config.
func programPath(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Program != "" {
		return cfg.Program, nil
	}
	return "", fmt.Errorf("no program given: pass a file or set program in %s", config.ConfigFileName)
}

// collectFacts merges, lowest first, the facts file, facts from the config
// and profile, and --set assignments.
func collectFacts(cfg *config.Config, assignments []string) (facts.Facts, error) {
	var fromFile facts.Facts
	if cfg.FactsFile != "" {
		var err error
		fromFile, err = facts.LoadFile(cfg.FactsFile)
		if err != nil {
			return nil, err
		}
	}
	fromFlags, err := facts.ParseAssignments(assignments)
	if err != nil {
		return nil, err
	}
	return facts.Merge(fromFile, cfg.Facts, fromFlags), nil
}
