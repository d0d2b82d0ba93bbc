package engine

import (
	"context"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// Remove deletes one result. Every record tag the result held triggers a
// restore pass over the partition, so any records it had suppressed
// reappear; the owning round's rankings are recomputed afterwards. One
// transaction end to end.
//
// round is required for contest results so rankings can be recomputed;
// pass nil for video results.
func (e *Engine) Remove(ctx context.Context, id string, round *model.Round) error {
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		r, err := tx.GetResult(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return newError(ErrCodePrecondition, id, "result not found")
		}
		if err := e.guardHistorical(ctx, tx, r); err != nil {
			return err
		}
		if r.RoundID != "" && (round == nil || round.ID != r.RoundID) {
			return newError(ErrCodePrecondition, id, "result belongs to round %q", r.RoundID)
		}

		if err := tx.DeleteResult(ctx, id); err != nil {
			return err
		}
		if r.RoundID != "" {
			remaining, err := tx.CountRound(ctx, r.RoundID)
			if err != nil {
				return err
			}
			e.logger.Info("result removed", "result", id, "round", r.RoundID, "remaining", remaining)
		} else {
			e.logger.Info("result removed", "result", id, "event", r.EventID, "category", r.Category)
		}

		for _, m := range metrics {
			lostTag := r.Tag(m)
			if lostTag == "" {
				continue
			}
			entry, err := audit.New(r.ID, m.String(), audit.OpClear, lostTag, "", r.Date, map[string]any{"reason": "delete"})
			if err != nil {
				return err
			}
			if err := tx.InsertAuditEntry(ctx, entry); err != nil {
				return err
			}
			if err := e.records.Restore(ctx, tx, r, m, lostTag); err != nil {
				return e.wrapRecordsError(err, r.ID)
			}
		}

		return e.recomputeRound(ctx, tx, round)
	})
}
