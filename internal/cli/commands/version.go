package commands

import (
	"runtime"
	"runtime/debug"

	"github.com/leapstack-labs/fuzzrule/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the fuzzrule version together with the Go toolchain and
platform it was built for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, version)
		},
	}
}

func runVersion(cmd *cobra.Command, version string) error {
	r := NewCommandContextWithoutEngine(cmd).Renderer
	info := output.VersionOutput{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Commit:    vcsRevision(),
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(info)
	}
	r.Printf("fuzzrule v%s\n", info.Version)
	r.Println("Fuzzy rule language compiler and inference engine")
	r.Muted(info.GoVersion + " " + info.Platform)
	if info.Commit != "" {
		r.Muted("commit " + info.Commit)
	}
	return nil
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
