package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/records"
)

// RecordsOptions holds flags for the records command.
type RecordsOptions struct {
	*RootOptions
	Event    string
	Category string
	Metric   string
	Scope    string
	Code     string
	AsOf     string
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Show the current holder of a record scope",
		Long: `Look up the currently-active record holder for one scope as of a date.
Stronger tags satisfy narrower scopes: a world record in Europe is also
the European record, and any tag on a result is its region's record.

Examples:
  resultsd records --event 333
  resultsd records --event 333 --scope continental --code EU --metric average
  resultsd records --event 333 --scope national --code DE --as-of 2023-06-01`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "event ID (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "competitions", "record category")
	cmd.Flags().StringVar(&opts.Metric, "metric", "single", "metric (single|average)")
	cmd.Flags().StringVar(&opts.Scope, "scope", "world", "record scope (world|continental|national)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "continent code for --scope continental, region code for --scope national")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "cutoff date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func runRecords(cmd *cobra.Command, opts *RecordsOptions) error {
	metric, err := metricFromFlag(opts.Metric)
	if err != nil {
		return err
	}

	var scope records.Scope
	switch opts.Scope {
	case "world":
		scope = records.WorldScope
	case "continental":
		if opts.Code == "" {
			return NewExitError(ExitCommandError, "--scope continental requires --code")
		}
		scope = records.ContinentalScope(opts.Code)
	case "national":
		if opts.Code == "" {
			return NewExitError(ExitCommandError, "--scope national requires --code")
		}
		scope = records.NationalScope(opts.Code)
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown scope %q", opts.Scope))
	}

	asOf := time.Now().UTC()
	if opts.AsOf != "" {
		asOf, err = time.Parse(time.DateOnly, opts.AsOf)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad --as-of", err)
		}
	}

	env, closer, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer()

	r, err := env.engine.LookupRecord(cmd.Context(), opts.Event, opts.Category, metric, scope, asOf)
	if err != nil {
		return wrapEngineError(err)
	}

	f := formatter(cmd, opts.RootOptions)
	if r == nil {
		if opts.Format == "json" {
			return f.Success(nil)
		}
		return f.Successf("no record for %s/%s %s", opts.Event, opts.Category, opts.Metric)
	}
	if opts.Format == "json" {
		return f.Success(resultPayload(r))
	}
	return f.Success(describeResult(r))
}
