package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
)

func newTestTx(t *testing.T) *Tx {
	t.Helper()

	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tx, err := st.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func contestResult(id, date string, best int) *model.Result {
	return &model.Result{
		ID:              id,
		EventID:         "333",
		Date:            day(date),
		Attempts:        []int{best},
		Best:            best,
		Category:        "competitions",
		RegionCode:      "US",
		SuperRegionCode: "NA",
		RoundID:         "round-1",
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestInsertGetDeleteRoundTrip(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	r := contestResult("r1", "2020-01-05", 1234)
	r.Attempts = []int{1234, model.AttemptDNF, 1300}
	r.Average = 0
	r.SingleRecord = "WR"

	require.NoError(t, tx.InsertResult(ctx, r))

	got, err := tx.GetResult(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.Attempts, got.Attempts)
	assert.Equal(t, 1234, got.Best)
	assert.Equal(t, "WR", got.SingleRecord)
	assert.Equal(t, "", got.AverageRecord)
	assert.Equal(t, "round-1", got.RoundID)
	assert.True(t, got.Date.Equal(day("2020-01-05")))

	require.NoError(t, tx.DeleteResult(ctx, "r1"))
	got, err = tx.GetResult(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetResultMissing(t *testing.T) {
	tx := newTestTx(t)

	got, err := tx.GetResult(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteResultMissing(t *testing.T) {
	tx := newTestTx(t)

	err := tx.DeleteResult(context.Background(), "nope")
	assert.Error(t, err)
}

func TestUpdateMetricsAndTag(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	require.NoError(t, tx.InsertResult(ctx, contestResult("r1", "2020-01-05", 1234)))

	require.NoError(t, tx.UpdateMetrics(ctx, "r1", []int{1100, 1200, 1300, 1150, 1250}, 1100, 1200))
	require.NoError(t, tx.UpdateTag(ctx, "r1", model.MetricAverage, "NR"))
	require.NoError(t, tx.UpdateTag(ctx, "r1", model.MetricSingle, ""))
	require.NoError(t, tx.UpdateRanking(ctx, "r1", 2, true))

	got, err := tx.GetResult(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1100, got.Best)
	assert.Equal(t, 1200, got.Average)
	assert.Equal(t, "NR", got.AverageRecord)
	assert.Equal(t, "", got.SingleRecord)
	assert.Equal(t, 2, got.Ranking)
	assert.True(t, got.Proceeds)
}

func TestCountRound(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	require.NoError(t, tx.InsertResult(ctx, contestResult("r1", "2020-01-05", 1000)))
	require.NoError(t, tx.InsertResult(ctx, contestResult("r2", "2020-01-05", 1100)))

	other := contestResult("r3", "2020-01-05", 1200)
	other.RoundID = "round-2"
	require.NoError(t, tx.InsertResult(ctx, other))

	n, err := tx.CountRound(ctx, "round-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLookupRecordLatestHolder(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	old := contestResult("old", "2020-01-05", 1200)
	old.SingleRecord = "WR"
	cur := contestResult("cur", "2020-02-05", 1100)
	cur.SingleRecord = "WR"
	future := contestResult("future", "2020-04-05", 1000)
	future.SingleRecord = "WR"
	require.NoError(t, tx.InsertResult(ctx, old))
	require.NoError(t, tx.InsertResult(ctx, cur))
	require.NoError(t, tx.InsertResult(ctx, future))

	q := RecordQuery{
		EventID:  "333",
		Category: "competitions",
		Metric:   model.MetricSingle,
		Tags:     []string{"WR"},
		AsOf:     day("2020-03-01"),
	}

	got, err := tx.LookupRecord(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cur", got.ID)

	q.ExcludeID = "cur"
	got, err = tx.LookupRecord(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "old", got.ID)

	q.Tags = []string{"ER"}
	got, err = tx.LookupRecord(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvalidationCandidatesStrictlyWorse(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	rows := []*model.Result{
		contestResult("equal", "2020-02-05", 1000),
		contestResult("worse", "2020-02-05", 1100),
		contestResult("dnf", "2020-02-05", model.AttemptDNF),
		contestResult("earlier", "2020-01-01", 1100),
		contestResult("untagged", "2020-02-05", 1100),
	}
	for _, r := range rows {
		if r.ID != "untagged" {
			r.SingleRecord = "NR"
		}
		require.NoError(t, tx.InsertResult(ctx, r))
	}

	got, err := tx.InvalidationCandidates(ctx, "333", "competitions", model.MetricSingle, day("2020-01-15"), 1000)
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	// Equal values tie, earlier dates are out of range, untagged rows
	// have nothing to invalidate. A DNF is strictly worse than anything.
	assert.Equal(t, []string{"dnf", "worse"}, ids)
}

func TestRestoreCandidatesOrderAndFilters(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	a := contestResult("a", "2020-02-05", 1100)
	b := contestResult("b", "2020-02-05", 1050)
	c := contestResult("c", "2020-03-05", 1020)
	over := contestResult("over", "2020-02-05", 1300)
	dnf := contestResult("dnf", "2020-02-05", model.AttemptDNF)
	foreign := contestResult("foreign", "2020-02-05", 1010)
	foreign.RegionCode = "CA"
	for _, r := range []*model.Result{a, b, c, over, dnf, foreign} {
		require.NoError(t, tx.InsertResult(ctx, r))
	}

	got, err := tx.RestoreCandidates(ctx, "333", "competitions", model.MetricSingle, day("2020-01-15"), 1200, "US", "", "a")
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	// Date ascending, then value ascending; over the baseline, invalid
	// values, other regions and the excluded row are all filtered out.
	assert.Equal(t, []string{"b", "c"}, ids)
}

func TestResultsForRound(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	require.NoError(t, tx.InsertResult(ctx, contestResult("r2", "2020-01-05", 1100)))
	require.NoError(t, tx.InsertResult(ctx, contestResult("r1", "2020-01-05", 1000)))

	video := contestResult("v1", "2020-01-05", 900)
	video.RoundID = ""
	video.SubmissionID = "sub-1"
	require.NoError(t, tx.InsertResult(ctx, video))

	got, err := tx.ResultsForRound(ctx, "round-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "r2", got[1].ID)

	all, err := tx.AllResults(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAuditInsertIsIdempotent(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	e, err := audit.New("r1", "single", audit.OpInvalidate, "WR", "", day("2020-01-05"), map[string]any{"by": "r2"})
	require.NoError(t, err)

	require.NoError(t, tx.InsertAuditEntry(ctx, e))
	require.NoError(t, tx.InsertAuditEntry(ctx, e))

	n, err := tx.AuditCount(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	other, err := audit.New("r1", "single", audit.OpRestore, "", "WR", day("2020-02-05"), nil)
	require.NoError(t, err)
	require.NoError(t, tx.InsertAuditEntry(ctx, other))

	n, err = tx.AuditCount(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	wantErr := assert.AnError

	err = st.WithTx(ctx, func(tx *Tx) error {
		if err := tx.InsertResult(ctx, contestResult("r1", "2020-01-05", 1000)); err != nil {
			return err
		}
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	err = st.WithTx(ctx, func(tx *Tx) error {
		got, err := tx.GetResult(ctx, "r1")
		if err != nil {
			return err
		}
		assert.Nil(t, got)
		return nil
	})
	require.NoError(t, err)
}
