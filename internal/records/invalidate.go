package records

import (
	"context"
	"fmt"

	"github.com/opencomp/resultsd/internal/audit"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// Invalidate rewrites the tags of every later-dated result shadowed by a
// newly tagged record. Only strictly worse values are affected; a row with
// an equal value on a later date is itself a record and is never touched.
//
// Depending on the shadowed row's own region fields its tag is either
// cleared outright or downgraded to National: a row from a different
// region that held World or Continental still has a national claim the
// new record does not disturb.
func (rc *Records) Invalidate(ctx context.Context, tx *store.Tx, r *model.Result, m model.Metric) error {
	tag := r.Tag(m)
	scope := rc.defs.ScopeOfTag(tag)
	if scope == model.ScopeNone {
		return nil
	}

	candidates, err := tx.InvalidationCandidates(ctx, r.EventID, r.Category, m, r.Date, r.Value(m))
	if err != nil {
		return err
	}

	for _, row := range candidates {
		if row.ID == r.ID {
			continue
		}

		rowTag := row.Tag(m)
		rowScope := rc.defs.ScopeOfTag(rowTag)

		newTag, affected := "", false
		switch scope {
		case model.ScopeWorld:
			newTag, affected = rc.shadowedByWorld(r, row, rowScope)
		case model.ScopeContinental:
			if row.SuperRegionCode != r.SuperRegionCode {
				continue
			}
			newTag, affected = rc.shadowedByContinental(r, row, rowScope)
		case model.ScopeNational:
			if row.RegionCode != r.RegionCode {
				continue
			}
			affected = rowScope == model.ScopeNational
		}

		if !affected || newTag == rowTag {
			continue
		}
		if err := rc.applyTagChange(ctx, tx, row, m, newTag, r.ID); err != nil {
			return err
		}
	}

	return nil
}

// shadowedByWorld decides the fate of a strictly worse row under a new
// World record.
func (rc *Records) shadowedByWorld(r, row *model.Result, rowScope model.RecordScope) (newTag string, affected bool) {
	switch rowScope {
	case model.ScopeNational:
		// A national record in another region is untouched; in the new
		// record's own region (or with no region at all) it is shadowed.
		if row.RegionCode == "" || row.RegionCode == r.RegionCode {
			return "", true
		}
		return "", false
	case model.ScopeWorld, model.ScopeContinental:
		if row.RegionCode != "" && row.RegionCode != r.RegionCode {
			// The row's national claim may still stand.
			return model.TagNational, true
		}
		// No region to fall back to, or the same region as the new
		// record: the tag is gone entirely.
		return "", true
	default:
		return "", false
	}
}

// shadowedByContinental decides the fate of a strictly worse row in the
// same super-region under a new Continental record.
func (rc *Records) shadowedByContinental(r, row *model.Result, rowScope model.RecordScope) (newTag string, affected bool) {
	switch rowScope {
	case model.ScopeContinental:
		if row.RegionCode != "" && row.RegionCode != r.RegionCode {
			return model.TagNational, true
		}
		return "", true
	case model.ScopeNational:
		if row.RegionCode == "" || row.RegionCode == r.RegionCode {
			return "", true
		}
		return "", false
	default:
		// A World tag cannot be shadowed by a Continental record.
		return "", false
	}
}

func (rc *Records) applyTagChange(ctx context.Context, tx *store.Tx, row *model.Result, m model.Metric, newTag, byID string) error {
	oldTag := row.Tag(m)

	op := audit.OpInvalidate
	if newTag != "" {
		op = audit.OpDowngrade
	}
	entry, err := audit.New(row.ID, m.String(), op, oldTag, newTag, row.Date, map[string]any{"by": byID})
	if err != nil {
		return err
	}

	if err := tx.UpdateTag(ctx, row.ID, m, newTag); err != nil {
		return fmt.Errorf("invalidate %s: %w", row.ID, err)
	}
	if err := tx.InsertAuditEntry(ctx, entry); err != nil {
		return err
	}
	row.SetTag(m, newTag)

	rc.logger.Info("record tag invalidated",
		"result", row.ID, "metric", m.String(), "old", oldTag, "new", newTag, "by", byID)
	return nil
}
