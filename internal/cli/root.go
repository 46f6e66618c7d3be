// Package cli wires the fuzzrule subcommands under one cobra root.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/fuzzrule/internal/cli/commands"
	"github.com/leapstack-labs/fuzzrule/internal/config"
	"github.com/spf13/cobra"
)

// Build metadata, overridden with -ldflags at release time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Commands that must work without a readable config file.
var configFree = map[string]bool{"help": true, "completion": true, "__complete": true}

// flagValues lists the fixed values offered by shell completion.
var flagValues = map[string][]string{
	"output":    {"auto", "text", "markdown", "json"},
	"log-level": {"debug", "info", "warn", "error"},
}

// NewRootCmd assembles the fuzzrule command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fuzzrule",
		Short: "fuzzrule - Fuzzy rule language compiler and inference engine",
		Long: `fuzzrule compiles programs written in a small fuzzy-logic rule language
and executes them.

A program declares fuzzy variables with triangular sets, rules that map
antecedent sets onto a consequent set, rulesets that group rules, and
execute statements. Running a program grounds the input variables and
returns the defuzzified centroid of the consequent.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFree[cmd.Name()] {
				return nil
			}
			return loadConfig(cmd)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default: ./fuzzrule.yaml)")
	flags.StringP("profile", "p", "", "Profile to apply from the config file")
	flags.String("state", "", "Path to the run history database")
	flags.String("facts", "", "Path to a YAML facts file")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	for name, values := range flagValues {
		_ = root.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
	_ = root.MarkPersistentFlagFilename("facts", "yaml", "yml")
	_ = root.MarkPersistentFlagFilename("config", "yaml", "yml")

	root.AddCommand(
		commands.NewCheckCommand(),
		commands.NewRunCommand(),
		commands.NewInspectCommand(),
		commands.NewFmtCommand(),
		commands.NewLintCommand(),
		commands.NewWatchCommand(),
		commands.NewREPLCommand(),
		commands.NewHistoryCommand(),
		commands.NewLSPCommand(Version),
		commands.NewVersionCommand(Version),
		NewCompletionCommand(),
	)
	return root
}

// loadConfig resolves the configuration for cmd and stores it, with a
// logger at the configured level, in the command context.
func loadConfig(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path, flags)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(config.WithLogger(config.WithConfig(ctx, cfg), logger))

	if cfg.Verbose {
		for _, kv := range [][2]string{{"config file", cfg.ConfigFile}, {"profile", cfg.Profile}} {
			if kv[1] != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using %s: %s\n", kv[0], kv[1])
			}
		}
	}
	return nil
}

// Execute runs fuzzrule with os.Args and reports any error on stderr.
func Execute(ctx context.Context) error {
	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for fuzzrule.

To load completions:

Bash:
  $ source <(fuzzrule completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ fuzzrule completion bash > /etc/bash_completion.d/fuzzrule
  # macOS:
  $ fuzzrule completion bash > $(brew --prefix)/etc/bash_completion.d/fuzzrule

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ fuzzrule completion zsh > "${fpath[1]}/_fuzzrule"

Fish:
  $ fuzzrule completion fish | source

  # To load completions for each session, execute once:
  $ fuzzrule completion fish > ~/.config/fish/completions/fuzzrule.fish

PowerShell:
  PS> fuzzrule completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
