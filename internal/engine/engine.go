// Package engine orchestrates result mutations. Each submit, update or
// remove runs as one atomic transaction that recomputes metrics, assigns
// or clears record tags, cascades invalidations or restorations, and
// recomputes the owning round's rankings - so partial cascades are never
// visible to readers.
//
// The engine assumes callers serialize writes to one (event, category)
// partition; operations on different partitions are independent.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/ranking"
	"github.com/opencomp/resultsd/internal/records"
	"github.com/opencomp/resultsd/internal/store"
)

// GuardWindow bounds how old a record-holding result may be before
// modification or deletion is refused outright. Cascading a correction
// through months of later records is considered too large a blast radius
// for unattended recomputation.
const GuardWindow = 30 * 24 * time.Hour

// Engine performs the per-result operations.
type Engine struct {
	store   *store.Store
	defs    *defs.Definitions
	records *records.Records
	clock   Clock
	ids     IDGenerator
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests exercising the guard.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator overrides result ID generation, for deterministic tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over one store and definition set.
func New(st *store.Store, d *defs.Definitions, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		defs:   d,
		clock:  SystemClock{},
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.records = records.New(d, e.logger)
	return e
}

// LookupRecord returns the current holder of one record scope as of a
// date, or nil when no record exists yet. Read-only surface for callers
// that render record lists.
func (e *Engine) LookupRecord(ctx context.Context, eventID, category string, m model.Metric, scope records.Scope, asOf time.Time) (*model.Result, error) {
	var result *model.Result
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		r, err := e.records.Lookup(ctx, tx, eventID, category, m, scope, asOf, "")
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// RecomputeRound recomputes ranking and proceeds flags for one round,
// persisting only rows whose values actually changed.
func (e *Engine) RecomputeRound(ctx context.Context, round *model.Round) error {
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		return e.recomputeRound(ctx, tx, round)
	})
}

func (e *Engine) recomputeRound(ctx context.Context, tx *store.Tx, round *model.Round) error {
	if round == nil {
		return nil
	}
	rows, err := tx.ResultsForRound(ctx, round.ID)
	if err != nil {
		return err
	}
	changes := ranking.Compute(rows, round)
	for _, c := range changes {
		if err := tx.UpdateRanking(ctx, c.ResultID, c.Ranking, c.Proceeds); err != nil {
			return err
		}
	}
	if len(changes) > 0 {
		e.logger.Debug("round rankings updated", "round", round.ID, "changed", len(changes))
	}
	return nil
}

// guardHistorical refuses modification of a result that holds, or ever
// held, a record tag and is older than the guard window.
func (e *Engine) guardHistorical(ctx context.Context, tx *store.Tx, r *model.Result) error {
	if e.clock.Now().Sub(r.Date) <= GuardWindow {
		return nil
	}

	held := r.SingleRecord != "" || r.AverageRecord != ""
	if !held {
		// The audit log remembers tags the row no longer carries.
		n, err := tx.AuditCount(ctx, r.ID)
		if err != nil {
			return err
		}
		held = n > 0
	}
	if held {
		return newError(ErrCodeGuardRefused, r.ID,
			"result is %s old and affects records; historical corrections must be applied manually",
			e.clock.Now().Sub(r.Date).Round(24*time.Hour))
	}
	return nil
}

// metrics lists the two metrics in assignment order.
var metrics = [2]model.Metric{model.MetricSingle, model.MetricAverage}

// averageEligible applies the average-record eligibility rule: the
// entered attempt count must equal the event's default average attempt
// count, except before the historical eligibility cutoff.
func (e *Engine) averageEligible(ev defs.Event, r *model.Result) bool {
	entered := 0
	for _, v := range r.Attempts {
		if v != model.AttemptSkipped {
			entered++
		}
	}
	return e.defs.AverageEligible(ev, entered, r.Date)
}
