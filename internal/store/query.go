package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/opencomp/resultsd/internal/model"
)

// cond builds a parameterized WHERE clause from optional filters.
// Clauses are ANDed in the order they are added, so query text stays
// deterministic for a given filter combination.
type cond struct {
	clauses []string
	args    []any
}

func (c *cond) add(expr string, args ...any) {
	c.clauses = append(c.clauses, expr)
	c.args = append(c.args, args...)
}

func (c *cond) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// RecordQuery selects the currently-active record holder for one scope.
//
// Tags is the closed set of tag labels that satisfy the requested scope
// (the scope's own label plus every stronger label that implies it); a nil
// Tags matches any held tag, which is what the national scope needs since
// every tag on a row implies that row's national record.
type RecordQuery struct {
	EventID  string
	Category string
	Metric   model.Metric

	Tags []string

	// AsOf bounds the search to rows dated on or before this date.
	AsOf time.Time

	// ExcludeID omits one row, used to find the previous holder while the
	// row losing its tag is still present.
	ExcludeID string

	// RegionCode / SuperRegionCode restrict the search geographically for
	// the national and continental scopes.
	RegionCode      string
	SuperRegionCode string
}

// LookupRecord returns the latest-dated result matching the query, or nil
// when no record exists yet for that scope. The absence of a holder is an
// expected state, not an error.
func (t *Tx) LookupRecord(ctx context.Context, q RecordQuery) (*model.Result, error) {
	tagCol := tagColumn(q.Metric)

	c := &cond{}
	c.add("event_id = ?", q.EventID)
	c.add("category = ?", q.Category)
	c.add("comp_date <= ?", q.AsOf.Format(time.DateOnly))
	c.add(tagCol + " IS NOT NULL")
	if len(q.Tags) > 0 {
		c.add(tagCol+" IN ("+placeholders(len(q.Tags))+")", toAny(q.Tags)...)
	}
	if q.RegionCode != "" {
		c.add("region_code = ?", q.RegionCode)
	}
	if q.SuperRegionCode != "" {
		c.add("super_region_code = ?", q.SuperRegionCode)
	}
	if q.ExcludeID != "" {
		c.add("id != ?", q.ExcludeID)
	}

	// Same-date holders never conflict, so any tie-break order works; id
	// keeps it deterministic.
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM results`+c.where()+
			` ORDER BY comp_date DESC, id ASC LIMIT 1`,
		c.args...)

	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup record: %w", err)
	}
	return r, nil
}

// InvalidationCandidates returns every tagged row in the partition dated on
// or after date whose metric value is strictly worse than value. Rows with
// an equal value are deliberately not returned: ties never invalidate.
func (t *Tx) InvalidationCandidates(ctx context.Context, eventID, category string, metric model.Metric, date time.Time, value int) ([]*model.Result, error) {
	col := metricColumn(metric)

	c := &cond{}
	c.add("event_id = ?", eventID)
	c.add("category = ?", category)
	c.add("comp_date >= ?", date.Format(time.DateOnly))
	c.add(tagColumn(metric) + " IS NOT NULL")
	// Strictly worse under the comparator: larger, or not a valid value.
	c.add("("+col+" > ? OR "+col+" <= 0)", value)

	return t.queryResults(ctx, c, " ORDER BY comp_date ASC, id ASC")
}

// RestoreCandidates returns the date-ordered rows a restore pass scans:
// same partition, dated on or after fromDate, with a valid metric value no
// worse than the baseline, optionally restricted to one region or
// super-region, excluding the row that lost its tag.
func (t *Tx) RestoreCandidates(ctx context.Context, eventID, category string, metric model.Metric, fromDate time.Time, baseline int, regionCode, superRegionCode, excludeID string) ([]*model.Result, error) {
	col := metricColumn(metric)

	c := &cond{}
	c.add("event_id = ?", eventID)
	c.add("category = ?", category)
	c.add("comp_date >= ?", fromDate.Format(time.DateOnly))
	c.add(col + " > 0")
	c.add(col+" <= ?", baseline)
	if regionCode != "" {
		c.add("region_code = ?", regionCode)
	}
	if superRegionCode != "" {
		c.add("super_region_code = ?", superRegionCode)
	}
	if excludeID != "" {
		c.add("id != ?", excludeID)
	}

	return t.queryResults(ctx, c, " ORDER BY comp_date ASC, "+col+" ASC, id ASC")
}

// AllResults returns every result in the database, ordered by ID.
// Used by conformance snapshots and diagnostics, not by the cascades.
func (t *Tx) AllResults(ctx context.Context) ([]*model.Result, error) {
	return t.queryResults(ctx, &cond{}, " ORDER BY id ASC")
}

// ResultsForRound returns every result attached to one round.
func (t *Tx) ResultsForRound(ctx context.Context, roundID string) ([]*model.Result, error) {
	c := &cond{}
	c.add("round_id = ?", roundID)
	return t.queryResults(ctx, c, " ORDER BY id ASC")
}

func (t *Tx) queryResults(ctx context.Context, c *cond, order string) ([]*model.Result, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM results`+c.where()+order, c.args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*model.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
