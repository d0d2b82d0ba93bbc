package model

import "time"

// Attempt value sentinels. Positive values are valid attempt results in the
// event's native unit (centiseconds, move count, points). The engine never
// interprets the unit; only the ordering matters.
const (
	AttemptSkipped = 0  // slot not attempted
	AttemptDNF     = -1 // did not finish
	AttemptDNS     = -2 // did not start
)

// Metric selects which derived value of a result is being operated on.
// Record assignment, invalidation and restoration all run once per metric.
type Metric int

const (
	MetricSingle Metric = iota
	MetricAverage
)

// String returns the metric name used in logs and audit entries.
func (m Metric) String() string {
	if m == MetricAverage {
		return "average"
	}
	return "single"
}

// Kind distinguishes the two mutually exclusive result kinds.
// Contest results belong to a round and participate in ranking;
// video results are linked to a submission and never ranked.
type Kind int

const (
	KindContest Kind = iota
	KindVideo
)

// Result is the single entity the engine mutates. One row per attempt set.
//
// Results are partitioned by (EventID, Category): rows in different
// partitions never interact. Date is a calendar date (UTC midnight, no
// time-of-day); rows sharing the exact same date are tied in time and never
// invalidate each other unless one is strictly better.
//
// RegionCode is set only when every participant of the result shares one
// region; SuperRegionCode is set whenever the participants share one
// continental grouping, which is implied when RegionCode is set. An empty
// string means "mixed" for both.
type Result struct {
	ID       string
	EventID  string
	Date     time.Time
	Attempts []int

	// Derived metrics. Values <= 0 mean "no valid value".
	Best    int
	Average int

	// Category is the record-category partition (competitions, meetups,
	// video-based). Tags are computed independently per category.
	Category string

	RegionCode      string
	SuperRegionCode string

	// Currently held record tags per metric ("" = none). The label is a
	// record-type label from the definitions: "WR", a continental label
	// such as "ER", or "NR".
	SingleRecord  string
	AverageRecord string

	// Contest kind only.
	RoundID  string
	Ranking  int
	Proceeds bool

	// Video kind only.
	SubmissionID string
}

// Kind reports which of the two result kinds this row is.
func (r *Result) Kind() Kind {
	if r.SubmissionID != "" {
		return KindVideo
	}
	return KindContest
}

// Value returns the result's derived value for the given metric.
func (r *Result) Value(m Metric) int {
	if m == MetricAverage {
		return r.Average
	}
	return r.Best
}

// Tag returns the record tag held for the given metric, or "".
func (r *Result) Tag(m Metric) string {
	if m == MetricAverage {
		return r.AverageRecord
	}
	return r.SingleRecord
}

// SetTag overwrites the record tag held for the given metric.
func (r *Result) SetTag(m Metric, tag string) {
	if m == MetricAverage {
		r.AverageRecord = tag
	} else {
		r.SingleRecord = tag
	}
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two calendar dates are the same day.
// Results carry no time-of-day, so equality on the date string is enough.
func SameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
