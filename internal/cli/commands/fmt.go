package commands

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/fuzzrule/pkg/format"
	"github.com/spf13/cobra"
)

// NewFmtCommand creates the fmt command.
func NewFmtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Print a program in canonical layout",
		Long: `Parse a program and print it in canonical layout: one declaration per
block, four-space indentation and each rule split over when and then lines.

Comments are not reproduced. The program is not compiled, so fmt also
works on programs with semantic errors.`,
		Example: `  fuzzrule fmt pump.fz
  fuzzrule fmt pump.fz > pump.formatted.fz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args)
		},
	}
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	path, err := programPath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the program the user asked to format
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}

	out, err := format.Source(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	cmdCtx.Logger.Debug("formatted program", "program", path)
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
