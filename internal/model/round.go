package model

// RoundFormat describes how many attempts a round expects and how its
// results are ranked. Formats are declared in the definitions; the engine
// only reads them.
type RoundFormat struct {
	ID string

	// Attempts is the number of attempt slots the format expects.
	Attempts int

	// SortByAverage ranks the round by average with single tie-break;
	// otherwise the round is ranked by best single.
	SortByAverage bool

	// DropBestWorst marks the five-attempt trimmed-average format: the
	// best and worst attempts are discarded before averaging.
	DropBestWorst bool
}

// Cutoff requires a sub-threshold attempt within the first Attempts slots
// before the remaining slots count toward an average. A nil *Cutoff on the
// round means no cutoff is configured.
type Cutoff struct {
	Value    int
	Attempts int
}

// ProceedType selects how a round's advancement threshold is expressed.
type ProceedType int

const (
	ProceedNone ProceedType = iota
	ProceedCount
	ProceedPercent
)

// Round is the round metadata the engine reads. Lifecycle management of
// rounds (creation, approval, opening) lives outside the engine.
type Round struct {
	ID      string
	EventID string
	Format  RoundFormat
	Cutoff  *Cutoff

	// TimeLimit bounds individual attempt values for validation; 0 = none.
	TimeLimit int

	// Final rounds never set proceeds.
	Final        bool
	ProceedType  ProceedType
	ProceedValue int
}
