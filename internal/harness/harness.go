package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/engine"
	"github.com/opencomp/resultsd/internal/model"
	"github.com/opencomp/resultsd/internal/store"
	"github.com/opencomp/resultsd/internal/testutil"
)

// Outcome is the result of running one scenario. Pass is false when any
// step or expectation failed; Errors describes each failure. Results and
// Audit hold the final database state for snapshot rendering.
type Outcome struct {
	Pass    bool
	Errors  []string
	Results []*model.Result
	Audit   []store.AuditRow
}

func (o *Outcome) fail(format string, args ...any) {
	o.Pass = false
	o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
}

// Run executes a scenario against a fresh in-memory database. The
// returned error reports infrastructure problems (bad scenario, broken
// storage); behavioral mismatches land in the Outcome instead.
func Run(sc *Scenario) (*Outcome, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, err
	}
	defer st.Close()

	d := defs.Default()

	rounds := make(map[string]*model.Round, len(sc.Rounds))
	for _, rd := range sc.Rounds {
		round, err := buildRound(d, rd)
		if err != nil {
			return nil, err
		}
		rounds[rd.ID] = round
	}

	// Submits expected to fail are rejected during validation, before an
	// ID is drawn, so only successful submits consume from the generator.
	var ids []string
	for _, step := range sc.Flow {
		if step.Submit != nil && step.Fail == "" {
			ids = append(ids, step.Submit.ID)
		}
	}

	start, err := initialClock(sc)
	if err != nil {
		return nil, err
	}
	clock := testutil.NewFixedClock(start)

	eng := engine.New(st, d,
		engine.WithClock(clock),
		engine.WithIDGenerator(&idSequence{ids: ids}),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	out := &Outcome{Pass: true}

	for i, step := range sc.Flow {
		var opErr error
		var label string

		switch {
		case step.Clock != "":
			at, err := parseDay(step.Clock)
			if err != nil {
				return nil, fmt.Errorf("flow step %d: %w", i+1, err)
			}
			clock.Set(at)
			continue

		case step.Submit != nil:
			label = "submit " + step.Submit.ID
			sub, err := buildSubmission(step.Submit, rounds)
			if err != nil {
				return nil, fmt.Errorf("flow step %d: %w", i+1, err)
			}
			_, opErr = eng.Submit(ctx, sub)

		case step.Update != nil:
			label = "update " + step.Update.ID
			round, err := resolveRound(rounds, step.Update.Round)
			if err != nil {
				return nil, fmt.Errorf("flow step %d: %w", i+1, err)
			}
			_, opErr = eng.Update(ctx, step.Update.ID, step.Update.Attempts, round)

		case step.Remove != nil:
			label = "remove " + step.Remove.ID
			round, err := resolveRound(rounds, step.Remove.Round)
			if err != nil {
				return nil, fmt.Errorf("flow step %d: %w", i+1, err)
			}
			opErr = eng.Remove(ctx, step.Remove.ID, round)
		}

		checkStepError(out, label, step.Fail, opErr)
	}

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		out.Results, err = tx.AllResults(ctx)
		if err != nil {
			return err
		}
		out.Audit, err = tx.AuditTrail(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	checkExpectations(out, sc)
	return out, nil
}

// idSequence hands out the scenario's declared result IDs in submit
// order. Unlike the engine's fixed test generator it does not panic when
// exhausted: a step that was expected to fail but succeeded draws an
// "unexpected-N" ID and surfaces as a step failure instead of a panic.
type idSequence struct {
	ids      []string
	idx      int
	overflow int
}

func (g *idSequence) Generate() string {
	if g.idx >= len(g.ids) {
		g.overflow++
		return fmt.Sprintf("unexpected-%d", g.overflow)
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

func checkStepError(out *Outcome, label, wantCode string, err error) {
	if wantCode == "" {
		if err != nil {
			out.fail("%s: unexpected error: %v", label, err)
		}
		return
	}
	if err == nil {
		out.fail("%s: expected %s, succeeded", label, wantCode)
		return
	}
	var ee *engine.EngineError
	if !errors.As(err, &ee) || string(ee.Code) != wantCode {
		out.fail("%s: expected %s, got: %v", label, wantCode, err)
	}
}

func checkExpectations(out *Outcome, sc *Scenario) {
	byID := make(map[string]*model.Result, len(out.Results))
	for _, r := range out.Results {
		byID[r.ID] = r
	}

	for _, exp := range sc.Expect {
		r, ok := byID[exp.ID]
		if exp.Deleted {
			if ok {
				out.fail("expect %s: should be deleted, still present", exp.ID)
			}
			continue
		}
		if !ok {
			out.fail("expect %s: result not found", exp.ID)
			continue
		}
		if exp.Single != nil && r.SingleRecord != *exp.Single {
			out.fail("expect %s: single tag %q, want %q", exp.ID, r.SingleRecord, *exp.Single)
		}
		if exp.Average != nil && r.AverageRecord != *exp.Average {
			out.fail("expect %s: average tag %q, want %q", exp.ID, r.AverageRecord, *exp.Average)
		}
		if exp.Ranking != nil && r.Ranking != *exp.Ranking {
			out.fail("expect %s: ranking %d, want %d", exp.ID, r.Ranking, *exp.Ranking)
		}
		if exp.Proceeds != nil && r.Proceeds != *exp.Proceeds {
			out.fail("expect %s: proceeds %t, want %t", exp.ID, r.Proceeds, *exp.Proceeds)
		}
	}
}

func buildRound(d *defs.Definitions, rd RoundDef) (*model.Round, error) {
	format, ok := d.Format(rd.Format)
	if !ok {
		return nil, fmt.Errorf("round %s: unknown format %q", rd.ID, rd.Format)
	}
	round := &model.Round{
		ID:        rd.ID,
		EventID:   rd.Event,
		Format:    format,
		Final:     rd.Final,
		TimeLimit: rd.TimeLimit,
	}
	switch {
	case rd.ProceedCount > 0:
		round.ProceedType = model.ProceedCount
		round.ProceedValue = rd.ProceedCount
	case rd.ProceedPercent > 0:
		round.ProceedType = model.ProceedPercent
		round.ProceedValue = rd.ProceedPercent
	}
	if rd.CutoffValue > 0 {
		attempts := rd.CutoffAttempts
		if attempts == 0 {
			attempts = 2
		}
		round.Cutoff = &model.Cutoff{Value: rd.CutoffValue, Attempts: attempts}
	}
	return round, nil
}

func buildSubmission(st *SubmitStep, rounds map[string]*model.Round) (engine.Submission, error) {
	date, err := parseDay(st.Date)
	if err != nil {
		return engine.Submission{}, fmt.Errorf("submit %s: %w", st.ID, err)
	}

	category := st.Category
	if category == "" {
		category = "competitions"
	}

	regions := st.Regions
	if len(regions) == 0 {
		regions = []string{""}
	}
	participants := make([]engine.Participant, len(regions))
	for i, code := range regions {
		participants[i] = engine.Participant{ID: fmt.Sprintf("p%d", i+1), Region: code}
	}

	sub := engine.Submission{
		EventID:      st.Event,
		Date:         date,
		Attempts:     st.Attempts,
		Category:     category,
		Participants: participants,
	}
	if st.Round != "" {
		round, err := resolveRound(rounds, st.Round)
		if err != nil {
			return engine.Submission{}, fmt.Errorf("submit %s: %w", st.ID, err)
		}
		sub.Round = round
	} else {
		sub.SubmissionID = st.Submission
		if sub.SubmissionID == "" {
			sub.SubmissionID = "sub-" + st.ID
		}
	}
	return sub, nil
}

func resolveRound(rounds map[string]*model.Round, id string) (*model.Round, error) {
	if id == "" {
		return nil, nil
	}
	round, ok := rounds[id]
	if !ok {
		return nil, fmt.Errorf("unknown round %q", id)
	}
	return round, nil
}

// initialClock defaults the wall clock to the latest submit date so every
// result in the flow starts inside the historical-edit window.
func initialClock(sc *Scenario) (time.Time, error) {
	if sc.Clock != "" {
		return parseDay(sc.Clock)
	}
	var latest time.Time
	for _, step := range sc.Flow {
		if step.Submit == nil {
			continue
		}
		d, err := parseDay(step.Submit.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("submit %s: %w", step.Submit.ID, err)
		}
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return time.Time{}, errors.New("scenario has no submit steps and no clock")
	}
	return latest, nil
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return d, nil
}
