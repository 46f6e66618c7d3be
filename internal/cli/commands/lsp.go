package commands

import (
	"github.com/leapstack-labs/fuzzrule/internal/config"
	"github.com/leapstack-labs/fuzzrule/internal/lsp"
	"github.com/spf13/cobra"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. Open programs
are parsed, compiled and linted on every change; lint settings come from
the lint section of the config file.`,
		Example: `  # Start LSP server (usually called by an editor)
  fuzzrule lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd, version)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command, version string) error {
	cfg := config.FromContext(cmd.Context())
	lintCfg, err := cfg.Lint.Analyzer()
	if err != nil {
		return err
	}

	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(),
		lsp.WithLogger(config.GetLogger(cmd.Context())),
		lsp.WithLintConfig(lintCfg),
		lsp.WithVersion(version),
	)
	return server.Run(cmd.Context())
}
