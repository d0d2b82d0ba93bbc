package cli

import (
	"github.com/spf13/cobra"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Attempts string
	Event    string
	Round    roundFlags
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <result-id>",
		Short: "Correct a result's attempts",
		Long: `Rewrite one result's attempts. Metrics are recomputed, record tags
re-derived, suppressed records restored or newly shadowed ones invalidated,
and the round's rankings recomputed, all in one transaction.

Results that hold or ever held a record and are older than the edit window
are refused; apply such corrections manually.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Attempts, "attempts", "", "comma-separated attempts; DNF, DNS and - are accepted (required)")
	cmd.Flags().StringVar(&opts.Event, "event", "", "event ID, needed with --round to resolve the format")
	opts.Round.register(cmd)
	_ = cmd.MarkFlagRequired("attempts")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions, id string) error {
	attempts, err := parseAttempts(opts.Attempts)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --attempts", err)
	}

	env, closer, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer()

	round, err := opts.Round.build(opts.Event, env.defs)
	if err != nil {
		return err
	}

	r, err := env.engine.Update(cmd.Context(), id, attempts, round)
	if err != nil {
		return wrapEngineError(err)
	}

	f := formatter(cmd, opts.RootOptions)
	if opts.Format == "json" {
		return f.Success(resultPayload(r))
	}
	return f.Successf("updated %s", describeResult(r))
}
