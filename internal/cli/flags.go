package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/engine"
	"github.com/opencomp/resultsd/internal/model"
)

// roundFlags collects the flags describing the round a contest result
// belongs to. Round metadata lives outside the database, so commands that
// touch contest results receive the round shape on the command line.
type roundFlags struct {
	ID             string
	Format         string
	Final          bool
	ProceedCount   int
	ProceedPercent int
	CutoffValue    int
	CutoffAttempts int
	TimeLimit      int
}

func (r *roundFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.ID, "round", "", "round ID (omit for video submissions)")
	cmd.Flags().StringVar(&r.Format, "round-format", "a", "round format ID (1|2|3|m|a)")
	cmd.Flags().BoolVar(&r.Final, "round-final", false, "round is a final (no proceeds)")
	cmd.Flags().IntVar(&r.ProceedCount, "proceed-count", 0, "number of competitors who proceed")
	cmd.Flags().IntVar(&r.ProceedPercent, "proceed-percent", 0, "percentage of competitors who proceed")
	cmd.Flags().IntVar(&r.CutoffValue, "cutoff", 0, "cutoff value (centiseconds; 0 = none)")
	cmd.Flags().IntVar(&r.CutoffAttempts, "cutoff-attempts", 2, "attempt slots available to make the cutoff")
	cmd.Flags().IntVar(&r.TimeLimit, "time-limit", 0, "per-attempt time limit (centiseconds; 0 = none)")
}

// build resolves the flags into a Round, or nil when no round ID is set.
func (r *roundFlags) build(eventID string, d *defs.Definitions) (*model.Round, error) {
	if r.ID == "" {
		return nil, nil
	}
	format, ok := d.Format(r.Format)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown round format %q", r.Format))
	}
	round := &model.Round{
		ID:        r.ID,
		EventID:   eventID,
		Format:    format,
		Final:     r.Final,
		TimeLimit: r.TimeLimit,
	}
	switch {
	case r.ProceedCount > 0:
		round.ProceedType = model.ProceedCount
		round.ProceedValue = r.ProceedCount
	case r.ProceedPercent > 0:
		round.ProceedType = model.ProceedPercent
		round.ProceedValue = r.ProceedPercent
	}
	if r.CutoffValue > 0 {
		round.Cutoff = &model.Cutoff{Value: r.CutoffValue, Attempts: r.CutoffAttempts}
	}
	return round, nil
}

// parseAttempts reads a comma-separated attempt list. Values are integers
// in the event's unit; "DNF", "DNS" and "-" (skipped) are accepted as
// sentinels, case-insensitive.
func parseAttempts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty attempt list")
	}
	parts := strings.Split(s, ",")
	attempts := make([]int, len(parts))
	for i, p := range parts {
		switch strings.ToUpper(strings.TrimSpace(p)) {
		case "DNF":
			attempts[i] = model.AttemptDNF
		case "DNS":
			attempts[i] = model.AttemptDNS
		case "-", "":
			attempts[i] = model.AttemptSkipped
		default:
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("bad attempt %q", p)
			}
			attempts[i] = v
		}
	}
	return attempts, nil
}

// parseParticipants reads repeated --participant values of the form
// "id" or "id:REGION".
func parseParticipants(values []string) ([]engine.Participant, error) {
	participants := make([]engine.Participant, 0, len(values))
	for _, v := range values {
		id, region, _ := strings.Cut(v, ":")
		if id == "" {
			return nil, fmt.Errorf("bad participant %q: want id or id:REGION", v)
		}
		participants = append(participants, engine.Participant{ID: id, Region: region})
	}
	return participants, nil
}

// metricFromFlag resolves the --metric flag.
func metricFromFlag(s string) (model.Metric, error) {
	switch s {
	case "single":
		return model.MetricSingle, nil
	case "average":
		return model.MetricAverage, nil
	default:
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("unknown metric %q: want single or average", s))
	}
}

// ResultPayload is the JSON shape commands emit for one result.
type ResultPayload struct {
	ID            string `json:"id"`
	EventID       string `json:"event_id"`
	Date          string `json:"date"`
	Attempts      []int  `json:"attempts"`
	Best          int    `json:"best"`
	Average       int    `json:"average"`
	Category      string `json:"category"`
	Region        string `json:"region,omitempty"`
	SuperRegion   string `json:"super_region,omitempty"`
	SingleRecord  string `json:"single_record,omitempty"`
	AverageRecord string `json:"average_record,omitempty"`
	RoundID       string `json:"round_id,omitempty"`
	Ranking       int    `json:"ranking,omitempty"`
	Proceeds      bool   `json:"proceeds,omitempty"`
	SubmissionID  string `json:"submission_id,omitempty"`
}

func resultPayload(r *model.Result) ResultPayload {
	return ResultPayload{
		ID:            r.ID,
		EventID:       r.EventID,
		Date:          r.Date.Format("2006-01-02"),
		Attempts:      r.Attempts,
		Best:          r.Best,
		Average:       r.Average,
		Category:      r.Category,
		Region:        r.RegionCode,
		SuperRegion:   r.SuperRegionCode,
		SingleRecord:  r.SingleRecord,
		AverageRecord: r.AverageRecord,
		RoundID:       r.RoundID,
		Ranking:       r.Ranking,
		Proceeds:      r.Proceeds,
		SubmissionID:  r.SubmissionID,
	}
}

// describeResult renders one result for text output.
func describeResult(r *model.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s/%s  best=%s", r.ID, r.Date.Format("2006-01-02"), r.EventID, r.Category, describeValue(r.Best))
	if r.SingleRecord != "" {
		fmt.Fprintf(&b, " [%s]", r.SingleRecord)
	}
	fmt.Fprintf(&b, " avg=%s", describeValue(r.Average))
	if r.AverageRecord != "" {
		fmt.Fprintf(&b, " [%s]", r.AverageRecord)
	}
	if r.RoundID != "" {
		fmt.Fprintf(&b, "  rank=%d", r.Ranking)
		if r.Proceeds {
			b.WriteString(" proceeds")
		}
	}
	return b.String()
}

func describeValue(v int) string {
	switch v {
	case model.AttemptDNF:
		return "DNF"
	case model.AttemptDNS:
		return "DNS"
	case model.AttemptSkipped:
		return "-"
	default:
		return strconv.Itoa(v)
	}
}
