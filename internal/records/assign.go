package records

import (
	"context"
	"fmt"

	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// Assign walks the scope hierarchy World → Continental → National and
// returns the best tag the result's metric value qualifies for, or "".
//
// The walk stops at the first scope whose current holder the new value
// equals or beats (an equal value on a later date is a new record - ties
// share the tag). A step whose region guard fails ends the walk: a result
// that cannot beat the World record and shares both region fields with the
// World holder has no narrower claim of its own.
//
// Assign only decides the tag for the result at hand; rewriting other
// rows' tags is Invalidate's job.
func (rc *Records) Assign(ctx context.Context, tx *store.Tx, r *model.Result, m model.Metric) (string, error) {
	v := r.Value(m)
	if v <= 0 {
		return "", nil
	}
	if r.RegionCode != "" && r.SuperRegionCode == "" {
		return "", fmt.Errorf("%w: result %s has region %s without a super-region", ErrHierarchy, r.ID, r.RegionCode)
	}

	world, err := rc.Lookup(ctx, tx, r.EventID, r.Category, m, WorldScope, r.Date, r.ID)
	if err != nil {
		return "", err
	}
	if world == nil || model.CompareSingle(v, world.Value(m)) <= 0 {
		return model.TagWorld, nil
	}

	if r.SuperRegionCode == "" {
		return "", nil
	}
	if r.SuperRegionCode == world.SuperRegionCode && r.RegionCode == world.RegionCode {
		// Fully shadowed by the World holder's own region.
		return "", nil
	}

	continental, err := rc.Lookup(ctx, tx, r.EventID, r.Category, m, ContinentalScope(r.SuperRegionCode), r.Date, r.ID)
	if err != nil {
		return "", err
	}
	if continental == nil || model.CompareSingle(v, continental.Value(m)) <= 0 {
		return rc.defs.RecordLabel(r.SuperRegionCode)
	}

	if r.RegionCode == "" || r.RegionCode == continental.RegionCode {
		return "", nil
	}

	national, err := rc.Lookup(ctx, tx, r.EventID, r.Category, m, NationalScope(r.RegionCode), r.Date, r.ID)
	if err != nil {
		return "", err
	}
	if national == nil || model.CompareSingle(v, national.Value(m)) <= 0 {
		return model.TagNational, nil
	}

	return "", nil
}
