package records

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

func newTestRecords(t *testing.T) (*Records, *store.Tx) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tx, err := st.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })

	rc := New(defs.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return rc, tx
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// seed builds a single-attempt result in the relay3/competitions
// partition with a pre-set tag, bypassing Assign.
func seed(id, date string, best int, region, super, tag string) *model.Result {
	return &model.Result{
		ID:              id,
		EventID:         "relay3",
		Date:            day(date),
		Attempts:        []int{best},
		Best:            best,
		Category:        "competitions",
		RegionCode:      region,
		SuperRegionCode: super,
		SingleRecord:    tag,
		SubmissionID:    "sub-" + id,
	}
}

func mustInsert(t *testing.T, tx *store.Tx, rows ...*model.Result) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, tx.InsertResult(context.Background(), r))
	}
}

func tagOf(t *testing.T, tx *store.Tx, id string) string {
	t.Helper()
	r, err := tx.GetResult(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.SingleRecord
}

func TestAssignEmptyPartition(t *testing.T) {
	rc, tx := newTestRecords(t)

	tag, err := rc.Assign(context.Background(), tx, seed("a", "2020-01-05", 9000, "US", "NA", ""), model.MetricSingle)
	require.NoError(t, err)
	assert.Equal(t, "WR", tag)
}

func TestAssignInvalidValue(t *testing.T) {
	rc, tx := newTestRecords(t)

	tag, err := rc.Assign(context.Background(), tx, seed("a", "2020-01-05", model.AttemptDNF, "US", "NA", ""), model.MetricSingle)
	require.NoError(t, err)
	assert.Equal(t, "", tag)
}

func TestAssignRegionWithoutSuperRegion(t *testing.T) {
	rc, tx := newTestRecords(t)

	r := seed("a", "2020-01-05", 9000, "US", "", "")
	_, err := rc.Assign(context.Background(), tx, r, model.MetricSingle)
	assert.ErrorIs(t, err, ErrHierarchy)
}

func TestAssignHierarchy(t *testing.T) {
	rc, tx := newTestRecords(t)

	// Standing holders: World 5500 (US), European 6200 (FR), German 6600.
	mustInsert(t, tx,
		seed("world", "2020-01-10", 5500, "US", "NA", "WR"),
		seed("euro", "2020-01-10", 6200, "FR", "EU", "ER"),
		seed("german", "2020-01-10", 6600, "DE", "EU", "NR"),
	)

	tests := []struct {
		name   string
		best   int
		region string
		super  string
		want   string
	}{
		{"beats world", 5400, "DE", "EU", "WR"},
		{"ties world", 5500, "DE", "EU", "WR"},
		{"beats continent", 6000, "DE", "EU", "ER"},
		{"ties continent", 6200, "DE", "EU", "ER"},
		{"beats nation", 6400, "DE", "EU", "NR"},
		{"beats nothing", 6700, "DE", "EU", ""},
		{"shadowed by world holder region", 6000, "US", "NA", ""},
		{"first in its nation", 6000, "CA", "NA", "NR"},
		{"mixed region stops at world", 6000, "", "", ""},
		{"mixed nation stops at continent", 6300, "", "EU", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := seed("cand", "2020-02-01", tt.best, tt.region, tt.super, "")
			tag, err := rc.Assign(context.Background(), tx, r, model.MetricSingle)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag)
		})
	}
}

func TestAssignIgnoresLaterRows(t *testing.T) {
	rc, tx := newTestRecords(t)

	// A better row dated after the candidate is not a standing record yet.
	mustInsert(t, tx, seed("future", "2020-03-01", 5000, "US", "NA", "WR"))

	tag, err := rc.Assign(context.Background(), tx, seed("cand", "2020-02-01", 5500, "DE", "EU", ""), model.MetricSingle)
	require.NoError(t, err)
	assert.Equal(t, "WR", tag)
}

func TestInvalidateWorldCascade(t *testing.T) {
	rc, tx := newTestRecords(t)

	newWR := seed("new", "2020-03-01", 5500, "DE", "EU", "WR")
	mustInsert(t, tx,
		newWR,
		seed("nr-same", "2020-04-01", 6600, "DE", "EU", "NR"),
		seed("er-other", "2020-04-01", 6200, "ES", "EU", "ER"),
		seed("er-mixed", "2020-04-01", 6700, "", "EU", "ER"),
		seed("nr-foreign", "2020-04-01", 6500, "US", "NA", "NR"),
		seed("tie", "2020-03-01", 5500, "US", "NA", "WR"),
		seed("earlier", "2020-02-01", 6000, "US", "NA", "WR"),
	)

	require.NoError(t, rc.Invalidate(context.Background(), tx, newWR, model.MetricSingle))

	// Shadowed in the new holder's own region: cleared.
	assert.Equal(t, "", tagOf(t, tx, "nr-same"))
	// Continental record from another region keeps its national claim.
	assert.Equal(t, "NR", tagOf(t, tx, "er-other"))
	// No region to fall back to: cleared.
	assert.Equal(t, "", tagOf(t, tx, "er-mixed"))
	// A national record in another region is out of reach.
	assert.Equal(t, "NR", tagOf(t, tx, "nr-foreign"))
	// Same-day equal value is itself a record.
	assert.Equal(t, "WR", tagOf(t, tx, "tie"))
	// Earlier rows are never candidates.
	assert.Equal(t, "WR", tagOf(t, tx, "earlier"))
}

func TestInvalidateContinentalCascade(t *testing.T) {
	rc, tx := newTestRecords(t)

	newER := seed("new", "2020-03-01", 6000, "DE", "EU", "ER")
	mustInsert(t, tx,
		newER,
		seed("er-other", "2020-04-01", 6200, "FR", "EU", "ER"),
		seed("er-mixed", "2020-04-01", 6300, "", "EU", "ER"),
		seed("nr-same", "2020-04-01", 6400, "DE", "EU", "NR"),
		seed("nr-other", "2020-04-01", 6500, "ES", "EU", "NR"),
		seed("other-continent", "2020-04-01", 6100, "US", "NA", "NAR"),
	)

	require.NoError(t, rc.Invalidate(context.Background(), tx, newER, model.MetricSingle))

	assert.Equal(t, "NR", tagOf(t, tx, "er-other"))
	assert.Equal(t, "", tagOf(t, tx, "er-mixed"))
	assert.Equal(t, "", tagOf(t, tx, "nr-same"))
	assert.Equal(t, "NR", tagOf(t, tx, "nr-other"))
	assert.Equal(t, "NAR", tagOf(t, tx, "other-continent"))
}

func TestInvalidateNationalCascade(t *testing.T) {
	rc, tx := newTestRecords(t)

	newNR := seed("new", "2020-03-01", 6400, "DE", "EU", "NR")
	mustInsert(t, tx,
		newNR,
		seed("nr-same", "2020-04-01", 6600, "DE", "EU", "NR"),
		seed("nr-other", "2020-04-01", 6500, "FR", "EU", "NR"),
	)

	require.NoError(t, rc.Invalidate(context.Background(), tx, newNR, model.MetricSingle))

	assert.Equal(t, "", tagOf(t, tx, "nr-same"))
	assert.Equal(t, "NR", tagOf(t, tx, "nr-other"))
}

func TestInvalidateIgnoresOtherCategory(t *testing.T) {
	rc, tx := newTestRecords(t)

	meetup := seed("meetup", "2020-04-01", 6600, "DE", "EU", "WR")
	meetup.Category = "meetups"

	newWR := seed("new", "2020-03-01", 5500, "DE", "EU", "WR")
	mustInsert(t, tx, newWR, meetup)

	require.NoError(t, rc.Invalidate(context.Background(), tx, newWR, model.MetricSingle))

	assert.Equal(t, "WR", tagOf(t, tx, "meetup"))
}

func TestInvalidateUntaggedResultIsNoop(t *testing.T) {
	rc, tx := newTestRecords(t)

	later := seed("later", "2020-04-01", 6600, "DE", "EU", "NR")
	plain := seed("plain", "2020-03-01", 5500, "DE", "EU", "")
	mustInsert(t, tx, plain, later)

	require.NoError(t, rc.Invalidate(context.Background(), tx, plain, model.MetricSingle))

	assert.Equal(t, "NR", tagOf(t, tx, "later"))
}

func TestRestoreAfterDelete(t *testing.T) {
	rc, tx := newTestRecords(t)

	feb := seed("feb", "2020-02-05", 8700, "US", "NA", "WR")
	mustInsert(t, tx,
		seed("jan", "2020-01-05", 9000, "US", "NA", "WR"),
		feb,
		seed("mar", "2020-03-05", 8800, "US", "NA", ""),
	)

	require.NoError(t, tx.DeleteResult(context.Background(), "feb"))
	require.NoError(t, rc.Restore(context.Background(), tx, feb, model.MetricSingle, "WR"))

	// With 8700 gone, 8800 beat the standing 9000 on its own date.
	assert.Equal(t, "WR", tagOf(t, tx, "mar"))
	assert.Equal(t, "WR", tagOf(t, tx, "jan"))
}

func TestRestoreRoundTrip(t *testing.T) {
	rc, tx := newTestRecords(t)
	ctx := context.Background()

	mustInsert(t, tx,
		seed("jan", "2020-01-05", 9000, "US", "NA", "WR"),
		seed("feb", "2020-02-05", 8700, "DE", "EU", "WR"),
		seed("mar", "2020-03-05", 8800, "FR", "EU", "NR"),
	)

	// A better result lands between jan and feb, then gets removed.
	intruder := seed("mid", "2020-01-15", 8000, "US", "NA", "WR")
	mustInsert(t, tx, intruder)
	require.NoError(t, rc.Invalidate(ctx, tx, intruder, model.MetricSingle))

	assert.Equal(t, "NR", tagOf(t, tx, "feb"))
	assert.Equal(t, "NR", tagOf(t, tx, "mar"))

	require.NoError(t, tx.DeleteResult(ctx, "mid"))
	require.NoError(t, rc.Restore(ctx, tx, intruder, model.MetricSingle, "WR"))

	// Tags are back to the state before the intruder existed.
	assert.Equal(t, "WR", tagOf(t, tx, "jan"))
	assert.Equal(t, "WR", tagOf(t, tx, "feb"))
	assert.Equal(t, "NR", tagOf(t, tx, "mar"))
}

func TestRestoreScopeGated(t *testing.T) {
	rc, tx := newTestRecords(t)

	lost := seed("lost", "2020-01-05", 6600, "DE", "EU", "NR")
	mustInsert(t, tx,
		lost,
		seed("german", "2020-02-05", 6650, "DE", "EU", ""),
		seed("french", "2020-02-05", 6500, "FR", "EU", ""),
	)

	require.NoError(t, tx.DeleteResult(context.Background(), "lost"))
	require.NoError(t, rc.Restore(context.Background(), tx, lost, model.MetricSingle, "NR"))

	// Losing a national tag only re-runs the national scope, and only
	// for the losing result's own region.
	assert.Equal(t, "NR", tagOf(t, tx, "german"))
	assert.Equal(t, "", tagOf(t, tx, "french"))
}

func TestRestoreWithoutPriorHolder(t *testing.T) {
	rc, tx := newTestRecords(t)

	only := seed("only", "2020-01-05", 9000, "US", "NA", "WR")
	mustInsert(t, tx,
		only,
		seed("feb", "2020-02-05", 9500, "", "", ""),
		seed("mar", "2020-03-05", 9200, "", "", ""),
	)

	require.NoError(t, tx.DeleteResult(context.Background(), "only"))
	require.NoError(t, rc.Restore(context.Background(), tx, only, model.MetricSingle, "WR"))

	// With no earlier holder both rows were records when set: feb held
	// the record until mar beat it.
	assert.Equal(t, "WR", tagOf(t, tx, "feb"))
	assert.Equal(t, "WR", tagOf(t, tx, "mar"))
}

func TestRestoreSameDayTie(t *testing.T) {
	rc, tx := newTestRecords(t)

	lost := seed("lost", "2020-01-05", 8000, "US", "NA", "WR")
	mustInsert(t, tx,
		lost,
		seed("tie-a", "2020-02-05", 8500, "", "", ""),
		seed("tie-b", "2020-02-05", 8500, "", "", ""),
		seed("slower", "2020-02-05", 8600, "", "", ""),
	)

	require.NoError(t, tx.DeleteResult(context.Background(), "lost"))
	require.NoError(t, rc.Restore(context.Background(), tx, lost, model.MetricSingle, "WR"))

	assert.Equal(t, "WR", tagOf(t, tx, "tie-a"))
	assert.Equal(t, "WR", tagOf(t, tx, "tie-b"))
	assert.Equal(t, "", tagOf(t, tx, "slower"))
}

func TestRestoreKeepsStrongerTags(t *testing.T) {
	rc, tx := newTestRecords(t)

	lost := seed("lost", "2020-01-05", 8000, "DE", "EU", "ER")
	mustInsert(t, tx,
		lost,
		seed("next", "2020-02-05", 8500, "DE", "EU", "WR"),
	)

	require.NoError(t, tx.DeleteResult(context.Background(), "lost"))
	require.NoError(t, rc.Restore(context.Background(), tx, lost, model.MetricSingle, "ER"))

	// A row already holding a stronger tag is left alone.
	assert.Equal(t, "WR", tagOf(t, tx, "next"))
}

func TestLookupImpliedTags(t *testing.T) {
	rc, tx := newTestRecords(t)
	ctx := context.Background()

	mustInsert(t, tx, seed("world", "2020-01-10", 5500, "US", "NA", "WR"))

	// A World tag satisfies the continental and national scopes too.
	r, err := rc.Lookup(ctx, tx, "relay3", "competitions", model.MetricSingle, ContinentalScope("NA"), day("2020-02-01"), "")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "world", r.ID)

	r, err = rc.Lookup(ctx, tx, "relay3", "competitions", model.MetricSingle, NationalScope("US"), day("2020-02-01"), "")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "world", r.ID)

	// But not another continent's scope.
	r, err = rc.Lookup(ctx, tx, "relay3", "competitions", model.MetricSingle, ContinentalScope("EU"), day("2020-02-01"), "")
	require.NoError(t, err)
	assert.Nil(t, r)
}
