package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/engine"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Event        string
	Date         string
	Attempts     string
	Category     string
	Participants []string
	Submission   string
	Round        roundFlags
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new result",
		Long: `Submit one result: attempts are validated against the round format,
metrics are derived, record tags assigned and cascaded, and the round's
rankings recomputed, all in one transaction.

Examples:
  resultsd submit --event 333 --date 2024-03-02 --attempts 1100,1200,1300,1150,1250 \
      --participant alice:US --round r1-333 --round-format a
  resultsd submit --event relay3 --date 2024-03-02 --attempts 9000 \
      --participant alice:DE --participant bob:FR --submission vid-17`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "event ID (required)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "result date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Attempts, "attempts", "", "comma-separated attempts; DNF, DNS and - are accepted (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "competitions", "record category")
	cmd.Flags().StringArrayVar(&opts.Participants, "participant", nil, "participant as id or id:REGION (repeatable, required)")
	cmd.Flags().StringVar(&opts.Submission, "submission", "", "video submission ID (omit for contest results)")
	opts.Round.register(cmd)
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("attempts")

	return cmd
}

func runSubmit(cmd *cobra.Command, opts *SubmitOptions) error {
	date, err := time.Parse(time.DateOnly, opts.Date)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --date", err)
	}
	attempts, err := parseAttempts(opts.Attempts)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --attempts", err)
	}
	participants, err := parseParticipants(opts.Participants)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --participant", err)
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

	sub := engine.Submission{
		EventID:      opts.Event,
		Date:         date,
		Attempts:     attempts,
		Category:     opts.Category,
		Participants: participants,
		Round:        round,
		SubmissionID: opts.Submission,
	}

	r, err := env.engine.Submit(cmd.Context(), sub)
	if err != nil {
		return wrapEngineError(err)
	}

	f := formatter(cmd, opts.RootOptions)
	if opts.Format == "json" {
		return f.Success(resultPayload(r))
	}
	return f.Successf("submitted %s", describeResult(r))
}

// wrapEngineError maps a typed engine failure to exit code 1 while
// letting infrastructure errors keep their own codes.
func wrapEngineError(err error) error {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return WrapExitError(ExitFailure, string(ee.Code), errors.New(ee.Message))
	}
	return WrapExitError(ExitCommandError, "operation failed", err)
}
