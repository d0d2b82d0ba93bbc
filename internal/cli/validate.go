package cli

import (
	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/defs"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <defs-dir>",
		Short: "Validate a definition directory",
		Long: `Compile a directory of CUE definition files and report whether the
events, regions, categories and formats they declare are consistent.

Example:
  resultsd validate ./definitions`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)

			d, err := defs.LoadDir(args[0])
			if err != nil {
				_ = f.Error("INVALID_DEFINITIONS", err.Error())
				return NewExitError(ExitFailure, "definitions are invalid")
			}

			summary := map[string]int{
				"events":     len(d.Events),
				"continents": len(d.Continents),
				"regions":    len(d.Regions),
				"categories": len(d.Categories),
				"formats":    len(d.Formats),
			}
			if rootOpts.Format == "json" {
				return f.Success(summary)
			}
			return f.Successf("definitions valid: %d events, %d continents, %d regions, %d categories, %d formats",
				summary["events"], summary["continents"], summary["regions"], summary["categories"], summary["formats"])
		},
	}
	return cmd
}
