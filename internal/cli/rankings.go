package cli

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// RankingsOptions holds flags for the rankings command.
type RankingsOptions struct {
	*RootOptions
	Event     string
	Recompute bool
	Round     roundFlags
}

// NewRankingsCommand creates the rankings command.
func NewRankingsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RankingsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show a round's rankings",
		Long: `List one round's results in rank order. With --recompute the stored
ranking and proceeds flags are first recomputed from the round's format
and advancement rule.

Example:
  resultsd rankings --event 333 --round r1-333 --round-format a --proceed-count 8 --recompute`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRankings(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Event, "event", "", "event ID, needed to resolve the round format")
	cmd.Flags().BoolVar(&opts.Recompute, "recompute", false, "recompute rankings before listing")
	opts.Round.register(cmd)
	_ = cmd.MarkFlagRequired("round")

	return cmd
}

func runRankings(cmd *cobra.Command, opts *RankingsOptions) error {
	env, closer, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closer()

	round, err := opts.Round.build(opts.Event, env.defs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Recompute {
		if err := env.engine.RecomputeRound(ctx, round); err != nil {
			return wrapEngineError(err)
		}
	}

	var rows []*model.Result
	err = env.store.WithTx(ctx, func(tx *store.Tx) error {
		rows, err = tx.ResultsForRound(ctx, round.ID)
		return err
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read round", err)
	}

	// Present in rank order; unranked rows (no valid metric) sink last.
	sortByRanking(rows)

	f := formatter(cmd, opts.RootOptions)
	if opts.Format == "json" {
		payload := make([]ResultPayload, len(rows))
		for i, r := range rows {
			payload[i] = resultPayload(r)
		}
		return f.Success(payload)
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(describeResult(r))
	}
	if len(rows) == 0 {
		b.WriteString("round " + round.ID + " has no results")
	}
	return f.Success(b.String())
}

func sortByRanking(rows []*model.Result) {
	sort.SliceStable(rows, func(i, j int) bool {
		return ranksBefore(rows[i], rows[j])
	})
}

func ranksBefore(a, b *model.Result) bool {
	if (a.Ranking == 0) != (b.Ranking == 0) {
		return b.Ranking == 0
	}
	if a.Ranking != b.Ranking {
		return a.Ranking < b.Ranking
	}
	return a.ID < b.ID
}
