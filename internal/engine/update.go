package engine

import (
	"context"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// Update rewrites a result's attempts and recomputes everything that
// depends on them. Per metric: the result's own tag is cleared, the
// restorer reinstates any records the old value had suppressed when the
// new value is strictly worse, the assigner re-derives the tag from the
// new value, and the invalidator cascades any tag gained. The owning
// round's rankings are recomputed last. One transaction end to end.
//
// round supplies the format, cutoff and advancement rule for contest
// results; pass nil for video results, whose format derives from the
// event.
func (e *Engine) Update(ctx context.Context, id string, attempts []int, round *model.Round) (*model.Result, error) {
	var result *model.Result

	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
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

		ev, ok := e.defs.Event(r.EventID)
		if !ok {
			return newError(ErrCodePrecondition, id, "unknown event %q", r.EventID)
		}

		format := e.defaultFormat(ev)
		var cutoff *model.Cutoff
		timeLimit := 0
		if round != nil {
			format = round.Format
			cutoff = round.Cutoff
			timeLimit = round.TimeLimit
		}
		if err := e.validateAttempts(attempts, format, cutoff, timeLimit); err != nil {
			return err
		}

		newBest, newAverage := model.ComputeBestAverage(attempts, format, cutoff)
		newValue := map[model.Metric]int{
			model.MetricSingle:  newBest,
			model.MetricAverage: newAverage,
		}

		// Phase 1: clear own tags and restore what the old values had
		// suppressed. Restoration runs while the row holds no tag, so
		// the scans see the partition as if this result's old value
		// never existed.
		for _, m := range metrics {
			oldTag := r.Tag(m)
			if oldTag == "" {
				continue
			}
			oldValue := r.Value(m)

			entry, err := audit.New(r.ID, m.String(), audit.OpClear, oldTag, "", r.Date, map[string]any{"reason": "update"})
			if err != nil {
				return err
			}
			if err := tx.UpdateTag(ctx, r.ID, m, ""); err != nil {
				return err
			}
			if err := tx.InsertAuditEntry(ctx, entry); err != nil {
				return err
			}
			r.SetTag(m, "")

			if model.CompareSingle(newValue[m], oldValue) > 0 {
				if err := e.records.Restore(ctx, tx, r, m, oldTag); err != nil {
					return e.wrapRecordsError(err, r.ID)
				}
			}
		}

		// Phase 2: persist the new metrics and re-derive tags from them.
		if err := tx.UpdateMetrics(ctx, r.ID, attempts, newBest, newAverage); err != nil {
			return err
		}
		r.Attempts = attempts
		r.Best = newBest
		r.Average = newAverage

		for _, m := range metrics {
			if m == model.MetricAverage && !e.averageEligible(ev, r) {
				continue
			}
			tag, err := e.records.Assign(ctx, tx, r, m)
			if err != nil {
				return e.wrapRecordsError(err, r.ID)
			}
			if tag == "" {
				continue
			}

			entry, err := audit.New(r.ID, m.String(), audit.OpAssign, "", tag, r.Date, map[string]any{"reason": "update"})
			if err != nil {
				return err
			}
			if err := tx.UpdateTag(ctx, r.ID, m, tag); err != nil {
				return err
			}
			if err := tx.InsertAuditEntry(ctx, entry); err != nil {
				return err
			}
			r.SetTag(m, tag)
			e.logger.Info("record assigned", "result", r.ID, "metric", m.String(), "tag", tag)

			if err := e.records.Invalidate(ctx, tx, r, m); err != nil {
				return e.wrapRecordsError(err, r.ID)
			}
		}

		if err := e.recomputeRound(ctx, tx, round); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
