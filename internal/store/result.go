package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opencomp/resultsd/internal/model"
)

const resultColumns = `id, event_id, comp_date, attempts, best, average, category,
	region_code, super_region_code, single_record, average_record,
	round_id, ranking, proceeds, submission_id`

// InsertResult persists a new result row with whatever tags it already
// carries. The caller computes metrics and tags before inserting.
func (t *Tx) InsertResult(ctx context.Context, r *model.Result) error {
	attempts, err := marshalAttempts(r.Attempts)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO results
		(id, event_id, comp_date, attempts, best, average, category,
		 region_code, super_region_code, single_record, average_record,
		 round_id, ranking, proceeds, submission_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.EventID,
		r.Date.Format(time.DateOnly),
		attempts,
		r.Best,
		r.Average,
		r.Category,
		nullable(r.RegionCode),
		nullable(r.SuperRegionCode),
		nullable(r.SingleRecord),
		nullable(r.AverageRecord),
		nullable(r.RoundID),
		nullableInt(r.Ranking),
		r.Proceeds,
		nullable(r.SubmissionID),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// GetResult returns one result by ID, or nil when it does not exist.
func (t *Tx) GetResult(ctx context.Context, id string) (*model.Result, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM results WHERE id = ?`, id)

	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return r, nil
}

// DeleteResult removes a result row. Deleting a missing row is an error:
// the engine resolves the row before deciding to delete it.
func (t *Tx) DeleteResult(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete result: no row with id %s", id)
	}
	return nil
}

// UpdateMetrics rewrites a result's attempts and derived metrics.
func (t *Tx) UpdateMetrics(ctx context.Context, id string, attempts []int, best, average int) error {
	data, err := marshalAttempts(attempts)
	if err != nil {
		return fmt.Errorf("update metrics: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		UPDATE results SET attempts = ?, best = ?, average = ? WHERE id = ?
	`, data, best, average, id)
	if err != nil {
		return fmt.Errorf("update metrics: %w", err)
	}
	return nil
}

// UpdateTag rewrites one result's record tag for one metric.
// An empty tag clears the column to NULL.
func (t *Tx) UpdateTag(ctx context.Context, id string, metric model.Metric, tag string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE results SET `+tagColumn(metric)+` = ? WHERE id = ?`,
		nullable(tag), id)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// UpdateRanking rewrites one result's ranking and proceeds flag.
func (t *Tx) UpdateRanking(ctx context.Context, id string, ranking int, proceeds bool) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE results SET ranking = ?, proceeds = ? WHERE id = ?`,
		nullableInt(ranking), proceeds, id)
	if err != nil {
		return fmt.Errorf("update ranking: %w", err)
	}
	return nil
}

// CountRound returns the number of results attached to a round.
func (t *Tx) CountRound(ctx context.Context, roundID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE round_id = ?`, roundID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count round: %w", err)
	}
	return n, nil
}

func tagColumn(m model.Metric) string {
	if m == model.MetricAverage {
		return "average_record"
	}
	return "single_record"
}

func metricColumn(m model.Metric) string {
	if m == model.MetricAverage {
		return "average"
	}
	return "best"
}

func marshalAttempts(attempts []int) (string, error) {
	if attempts == nil {
		attempts = []int{}
	}
	data, err := json.Marshal(attempts)
	if err != nil {
		return "", fmt.Errorf("marshal attempts: %w", err)
	}
	return string(data), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*model.Result, error) {
	var (
		r            model.Result
		date         string
		attempts     string
		region       sql.NullString
		superRegion  sql.NullString
		singleTag    sql.NullString
		averageTag   sql.NullString
		roundID      sql.NullString
		ranking      sql.NullInt64
		submissionID sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.EventID, &date, &attempts, &r.Best, &r.Average, &r.Category,
		&region, &superRegion, &singleTag, &averageTag,
		&roundID, &ranking, &r.Proceeds, &submissionID,
	)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("parse comp_date %q: %w", date, err)
	}
	if err := json.Unmarshal([]byte(attempts), &r.Attempts); err != nil {
		return nil, fmt.Errorf("parse attempts: %w", err)
	}

	r.RegionCode = region.String
	r.SuperRegionCode = superRegion.String
	r.SingleRecord = singleTag.String
	r.AverageRecord = averageTag.String
	r.RoundID = roundID.String
	r.Ranking = int(ranking.Int64)
	r.SubmissionID = submissionID.String

	return &r, nil
}
