package cli

import (
	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the results database",
		Long: `Create the SQLite database at --db, applying the schema and any
pending migrations. Safe to run repeatedly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(rootOpts.Database)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize database", err)
			}
			if err := st.Close(); err != nil {
				return WrapExitError(ExitCommandError, "failed to close database", err)
			}

			f := formatter(cmd, rootOpts)
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{"database": rootOpts.Database})
			}
			return f.Successf("database ready at %s", rootOpts.Database)
		},
	}
	return cmd
}
