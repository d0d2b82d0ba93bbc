// Package ranking orders the results of one round and computes advancement
// flags. It is pure computation: callers persist the returned changes.
package ranking

import (
	"sort"

	"github.com/opencomp/resultsd/internal/model"
)

// Change is one row whose ranking or proceeds flag differs from what is
// currently persisted.
type Change struct {
	ResultID string
	Ranking  int
	Proceeds bool
}

// maxProceedShare caps advancement at the top 75% of entrants regardless
// of the configured threshold.
const maxProceedShare = 0.75

// Compute sorts the round's results by its primary metric, assigns
// standard competition ranking (ties share a rank, the next strictly
// worse result ranks at one past its list position) and flags which
// results advance.
//
// A result proceeds iff the round is a non-final contest round, its rank
// is within both the 75% cap and the configured threshold, and its ranked
// metric is a valid value. Calling Compute twice over its own output is a
// fixed point: only genuinely changed rows are returned.
func Compute(results []*model.Result, round *model.Round) []Change {
	if len(results) == 0 {
		return nil
	}

	sorted := make([]*model.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := compare(sorted[i], sorted[j], round)
		if c != 0 {
			return c < 0
		}
		return sorted[i].ID < sorted[j].ID
	})

	limit := proceedLimit(round, len(sorted))

	var changes []Change
	rank := 0
	for i, r := range sorted {
		if i == 0 || compare(sorted[i-1], r, round) != 0 {
			rank = i + 1
		}

		proceeds := false
		if !round.Final && limit > 0 {
			proceeds = rank <= limit && rankedValue(r, round) > 0
		}

		if r.Ranking != rank || r.Proceeds != proceeds {
			changes = append(changes, Change{ResultID: r.ID, Ranking: rank, Proceeds: proceeds})
		}
	}
	return changes
}

func compare(a, b *model.Result, round *model.Round) int {
	if round.Format.SortByAverage {
		return model.CompareAverage(a, b, true)
	}
	return model.CompareSingle(a.Best, b.Best)
}

func rankedValue(r *model.Result, round *model.Round) int {
	if round.Format.SortByAverage {
		return r.Average
	}
	return r.Best
}

// proceedLimit resolves the advancement threshold in entrant count, or 0
// when the round does not advance anyone.
func proceedLimit(round *model.Round, entrants int) int {
	cap75 := int(maxProceedShare * float64(entrants))

	var limit int
	switch round.ProceedType {
	case model.ProceedCount:
		limit = round.ProceedValue
	case model.ProceedPercent:
		limit = entrants * round.ProceedValue / 100
	default:
		return 0
	}

	if limit > cap75 {
		limit = cap75
	}
	return limit
}
