package records

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// ErrRunningMinimum is returned when the restore scan observes candidates
// out of date order, which would make the running minimum meaningless.
// This indicates a storage bug, not caller error.
var ErrRunningMinimum = errors.New("restore scan out of date order")

// noHolder is the baseline when no previous record holder exists: worse
// than any real value, so every valid candidate qualifies.
const noHolder = math.MaxInt64

// Restore recomputes which later rows regain a tag after the given result
// lost lostTag for metric m (it was deleted, or its value got worse).
//
// One pass runs per scope the lost tag implied, strongest first, so a row
// tagged World by an earlier pass is never overwritten by a weaker pass.
// Each pass establishes the previous holder's value before the losing
// date as a baseline, scans the partition forward from the losing date,
// and tags every row whose value equals the running minimum of per-date
// minimums as of its own date.
//
// The outcome matches what date-ordered re-assignment of the whole
// partition would produce had the losing result never existed.
func (rc *Records) Restore(ctx context.Context, tx *store.Tx, r *model.Result, m model.Metric, lostTag string) error {
	scope := rc.defs.ScopeOfTag(lostTag)
	if scope == model.ScopeNone {
		return nil
	}

	if scope.AtLeast(model.ScopeWorld) {
		if err := rc.restorePass(ctx, tx, r, m, WorldScope); err != nil {
			return err
		}
	}
	if scope.AtLeast(model.ScopeContinental) && r.SuperRegionCode != "" {
		if err := rc.restorePass(ctx, tx, r, m, ContinentalScope(r.SuperRegionCode)); err != nil {
			return err
		}
	}
	if scope.AtLeast(model.ScopeNational) && r.RegionCode != "" {
		if err := rc.restorePass(ctx, tx, r, m, NationalScope(r.RegionCode)); err != nil {
			return err
		}
	}
	return nil
}

func (rc *Records) restorePass(ctx context.Context, tx *store.Tx, r *model.Result, m model.Metric, scope Scope) error {
	// Baseline: the still-valid holder strictly before the losing date.
	holder, err := rc.Lookup(ctx, tx, r.EventID, r.Category, m, scope, r.Date.AddDate(0, 0, -1), r.ID)
	if err != nil {
		return err
	}
	baseline := noHolder
	if holder != nil {
		baseline = holder.Value(m)
	}

	var regionFilter, superRegionFilter string
	switch scope.Kind {
	case model.ScopeContinental:
		superRegionFilter = scope.SuperRegion
	case model.ScopeNational:
		regionFilter = scope.Region
	}

	candidates, err := tx.RestoreCandidates(ctx, r.EventID, r.Category, m, r.Date, baseline, regionFilter, superRegionFilter, r.ID)
	if err != nil {
		return err
	}

	tag, err := rc.tagFor(scope)
	if err != nil {
		return err
	}

	// Candidates arrive ordered by date then value, so the first row of
	// each date group carries that date's minimum. The running minimum as
	// of a date includes the date's own group.
	runMin := noHolder
	var curDate string
	for _, row := range candidates {
		d := row.Date.Format(time.DateOnly)
		if curDate != "" && d < curDate {
			return fmt.Errorf("%w: %s after %s", ErrRunningMinimum, d, curDate)
		}
		if d != curDate {
			curDate = d
			if v := row.Value(m); v < runMin {
				runMin = v
			}
		}

		if row.Value(m) != runMin {
			continue
		}
		if rc.defs.ScopeOfTag(row.Tag(m)).AtLeast(scope.Kind) {
			// Already holds this tag or a stronger one.
			continue
		}

		oldTag := row.Tag(m)
		entry, err := audit.New(row.ID, m.String(), audit.OpRestore, oldTag, tag, row.Date, map[string]any{
			"after": r.ID,
			"scope": scope.Kind.String(),
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateTag(ctx, row.ID, m, tag); err != nil {
			return fmt.Errorf("restore %s: %w", row.ID, err)
		}
		if err := tx.InsertAuditEntry(ctx, entry); err != nil {
			return err
		}
		row.SetTag(m, tag)

		rc.logger.Info("record tag restored",
			"result", row.ID, "metric", m.String(), "old", oldTag, "new", tag, "after", r.ID)
	}

	return nil
}
