package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
)

// ErrHierarchy is returned when the region fields of a result contradict
// the region hierarchy (a region present without its super-region). This
// is an invariant violation, not a caller mistake.
var ErrHierarchy = errors.New("region hierarchy invariant violated")

// Records performs the transactional record operations. It is stateless
// apart from the compiled definitions and a logger; all data flows through
// the transaction it is handed.
type Records struct {
	defs   *defs.Definitions
	logger *slog.Logger
}

// New creates a Records service over one definition set.
func New(d *defs.Definitions, logger *slog.Logger) *Records {
	if logger == nil {
		logger = slog.Default()
	}
	return &Records{defs: d, logger: logger}
}

// Scope identifies one record scope concretely: the kind plus the
// continent or region it applies to where the kind needs one.
type Scope struct {
	Kind        model.RecordScope
	SuperRegion string // continental scope
	Region      string // national scope
}

// WorldScope is the scope of the world record.
var WorldScope = Scope{Kind: model.ScopeWorld}

// ContinentalScope returns the scope of one continent's record.
func ContinentalScope(superRegion string) Scope {
	return Scope{Kind: model.ScopeContinental, SuperRegion: superRegion}
}

// NationalScope returns the scope of one region's record.
func NationalScope(region string) Scope {
	return Scope{Kind: model.ScopeNational, Region: region}
}

// Lookup returns the currently-active record holder for a scope as of the
// given date (inclusive), or nil when no record exists yet. Stronger tags
// are accepted as matches: a World tag in a continent is also that
// continent's record, and any tag on a row is that row's national record.
func (rc *Records) Lookup(ctx context.Context, tx *store.Tx, eventID, category string, m model.Metric, scope Scope, asOf time.Time, excludeID string) (*model.Result, error) {
	q := store.RecordQuery{
		EventID:   eventID,
		Category:  category,
		Metric:    m,
		AsOf:      asOf,
		ExcludeID: excludeID,
	}

	switch scope.Kind {
	case model.ScopeWorld:
		q.Tags = []string{model.TagWorld}
	case model.ScopeContinental:
		label, err := rc.defs.RecordLabel(scope.SuperRegion)
		if err != nil {
			return nil, fmt.Errorf("continental lookup: %w", err)
		}
		q.Tags = []string{model.TagWorld, label}
		q.SuperRegionCode = scope.SuperRegion
	case model.ScopeNational:
		// Any tag implies the national record; leave Tags nil.
		q.RegionCode = scope.Region
	default:
		return nil, fmt.Errorf("lookup: scope %v has no record", scope.Kind)
	}

	return tx.LookupRecord(ctx, q)
}

// tagFor returns the tag label a scope confers.
func (rc *Records) tagFor(scope Scope) (string, error) {
	switch scope.Kind {
	case model.ScopeWorld:
		return model.TagWorld, nil
	case model.ScopeContinental:
		return rc.defs.RecordLabel(scope.SuperRegion)
	case model.ScopeNational:
		return model.TagNational, nil
	default:
		return "", fmt.Errorf("scope %v has no tag", scope.Kind)
	}
}
