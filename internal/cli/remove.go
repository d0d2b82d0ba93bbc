package cli

import (
	"github.com/spf13/cobra"
)

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Event string
	Round roundFlags
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <result-id>",
		Short: "Delete a result",
		Long: `Delete one result. Records it had suppressed are restored and the
round's rankings recomputed, all in one transaction. Contest results
require the owning round on the command line.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "event ID, needed with --round to resolve the format")
	opts.Round.register(cmd)

	return cmd
}

func runRemove(cmd *cobra.Command, opts *RemoveOptions, id string) error {
	env, closer, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer()

	round, err := opts.Round.build(opts.Event, env.defs)
	if err != nil {
		return err
	}

	if err := env.engine.Remove(cmd.Context(), id, round); err != nil {
		return wrapEngineError(err)
	}

	f := formatter(cmd, opts.RootOptions)
	if opts.Format == "json" {
		return f.Success(map[string]string{"removed": id})
	}
	return f.Successf("removed %s", id)
}
