package cli

import (
	"github.com/spf13/cobra"
)

// Version is the build version, overridden at link time via
// -ldflags "-X github.com/opencomp/resultsd/internal/cli.Version=v1.2.3".
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the resultsd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{"version": Version})
			}
			return f.Success(Version)
		},
	}
}
