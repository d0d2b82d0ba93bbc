package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencomp/resultsd/internal/audit"
)

// InsertAuditEntry appends one audit entry inside the transaction.
// Entry IDs are content hashes; replaying an identical operation writes
// an identical ID, which ON CONFLICT DO NOTHING silently absorbs.
func (t *Tx) InsertAuditEntry(ctx context.Context, e *audit.Entry) error {
	detail, err := e.DetailJSON()
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, result_id, metric, op, old_tag, new_tag, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.ResultID,
		e.Metric,
		string(e.Op),
		nullable(e.OldTag),
		nullable(e.NewTag),
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditRow is one persisted audit entry as read back from the log.
type AuditRow struct {
	ResultID string
	Metric   string
	Op       string
	OldTag   string
	NewTag   string
}

// AuditTrail returns the full audit log in write order.
// Read-only surface for conformance snapshots and the CLI.
func (t *Tx) AuditTrail(ctx context.Context) ([]AuditRow, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT result_id, metric, op, old_tag, new_tag FROM audit_log ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	defer rows.Close()

	var trail []AuditRow
	for rows.Next() {
		var r AuditRow
		var oldTag, newTag sql.NullString
		if err := rows.Scan(&r.ResultID, &r.Metric, &r.Op, &oldTag, &newTag); err != nil {
			return nil, fmt.Errorf("audit trail: %w", err)
		}
		r.OldTag = oldTag.String
		r.NewTag = newTag.String
		trail = append(trail, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	return trail, nil
}

// AuditCount returns the number of audit entries for one result.
func (t *Tx) AuditCount(ctx context.Context, resultID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE result_id = ?`, resultID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit count: %w", err)
	}
	return n, nil
}
