package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/records"
	"github.com/opencomp/resultsd/internal/store"
)

// Submit creates one result: validates the submission, derives region
// fields, computes metrics, assigns record tags, persists, cascades
// invalidation for every tag gained and recomputes the round's rankings -
// all within one transaction.
func (e *Engine) Submit(ctx context.Context, sub Submission) (*model.Result, error) {
	ev, format, err := e.validate(&sub)
	if err != nil {
		return nil, err
	}

	region, superRegion := e.deriveRegion(sub.Participants)

	r := &model.Result{
		ID:              e.ids.Generate(),
		EventID:         sub.EventID,
		Date:            model.DateOf(sub.Date),
		Attempts:        sub.Attempts,
		Category:        sub.Category,
		RegionCode:      region,
		SuperRegionCode: superRegion,
		SubmissionID:    sub.SubmissionID,
	}
	if sub.Round != nil {
		r.RoundID = sub.Round.ID
	}

	var cutoff *model.Cutoff
	if sub.Round != nil {
		cutoff = sub.Round.Cutoff
	}
	r.Best, r.Average = model.ComputeBestAverage(sub.Attempts, format, cutoff)

	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		for _, m := range metrics {
			if m == model.MetricAverage && !e.averageEligible(ev, r) {
				continue
			}
			tag, err := e.records.Assign(ctx, tx, r, m)
			if err != nil {
				return e.wrapRecordsError(err, r.ID)
			}
			r.SetTag(m, tag)
		}

		if err := tx.InsertResult(ctx, r); err != nil {
			return err
		}

		for _, m := range metrics {
			tag := r.Tag(m)
			if tag == "" {
				continue
			}
			entry, err := audit.New(r.ID, m.String(), audit.OpAssign, "", tag, r.Date, nil)
			if err != nil {
				return err
			}
			if err := tx.InsertAuditEntry(ctx, entry); err != nil {
				return err
			}
			e.logger.Info("record assigned", "result", r.ID, "metric", m.String(), "tag", tag)

			if err := e.records.Invalidate(ctx, tx, r, m); err != nil {
				return e.wrapRecordsError(err, r.ID)
			}
		}

		return e.recomputeRound(ctx, tx, sub.Round)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// wrapRecordsError converts the records package's invariant sentinels into
// typed engine errors; everything else passes through wrapped.
func (e *Engine) wrapRecordsError(err error, resultID string) error {
	if errors.Is(err, records.ErrHierarchy) || errors.Is(err, records.ErrRunningMinimum) {
		e.logger.Error("record invariant violated", "result", resultID, "err", err)
		return &EngineError{Code: ErrCodeInvariant, ResultID: resultID, Message: err.Error()}
	}
	return fmt.Errorf("record cascade: %w", err)
}
