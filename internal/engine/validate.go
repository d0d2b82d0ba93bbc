package engine

import (
	"time"

	"github.com/opencomp/resultsd/internal/defs"
	"github.com/opencomp/resultsd/internal/model"
)

// Participant is one competitor on a result. Relay-style results carry
// several; the region fields of the result derive from the set.
type Participant struct {
	ID     string
	Region string
}

// Submission is the input to Submit. Exactly one of Round and
// SubmissionID must be set: contest entries belong to a round, video
// entries to a submission.
type Submission struct {
	EventID      string
	Date         time.Time
	Attempts     []int
	Category     string
	Participants []Participant

	Round        *model.Round
	SubmissionID string
}

// validate checks a submission before anything is persisted.
func (e *Engine) validate(sub *Submission) (defs.Event, model.RoundFormat, error) {
	ev, ok := e.defs.Event(sub.EventID)
	if !ok {
		return defs.Event{}, model.RoundFormat{}, newError(ErrCodePrecondition, "", "unknown event %q", sub.EventID)
	}
	if !e.defs.ValidCategory(sub.Category) {
		return ev, model.RoundFormat{}, newError(ErrCodeValidation, "", "unknown record category %q", sub.Category)
	}

	if (sub.Round == nil) == (sub.SubmissionID == "") {
		return ev, model.RoundFormat{}, newError(ErrCodeValidation, "", "a result is either a contest result or a video submission")
	}

	if len(sub.Participants) == 0 {
		return ev, model.RoundFormat{}, newError(ErrCodeValidation, "", "at least one participant is required")
	}
	seen := make(map[string]bool, len(sub.Participants))
	for _, p := range sub.Participants {
		if seen[p.ID] {
			return ev, model.RoundFormat{}, newError(ErrCodeValidation, "", "duplicate participant %q", p.ID)
		}
		seen[p.ID] = true
		if p.Region != "" {
			if _, ok := e.defs.Region(p.Region); !ok {
				return ev, model.RoundFormat{}, newError(ErrCodePrecondition, "", "unknown region %q", p.Region)
			}
		}
	}

	format := e.defaultFormat(ev)
	var cutoff *model.Cutoff
	timeLimit := 0
	if sub.Round != nil {
		format = sub.Round.Format
		cutoff = sub.Round.Cutoff
		timeLimit = sub.Round.TimeLimit
	}

	if err := e.validateAttempts(sub.Attempts, format, cutoff, timeLimit); err != nil {
		return ev, format, err
	}
	return ev, format, nil
}

func (e *Engine) validateAttempts(attempts []int, format model.RoundFormat, cutoff *model.Cutoff, timeLimit int) error {
	if len(attempts) == 0 {
		return newError(ErrCodeValidation, "", "no attempts entered")
	}
	if len(attempts) > format.Attempts {
		return newError(ErrCodeValidation, "", "%d attempts entered for a %d-attempt format", len(attempts), format.Attempts)
	}

	entered := 0
	anyValid := false
	for _, v := range attempts {
		if v != model.AttemptSkipped {
			entered++
		}
		if v > 0 {
			anyValid = true
			if timeLimit > 0 && v > timeLimit {
				return newError(ErrCodeValidation, "", "attempt %d exceeds the time limit %d", v, timeLimit)
			}
		}
	}
	if entered == 0 {
		return newError(ErrCodeValidation, "", "all attempts are empty")
	}
	if !anyValid {
		return newError(ErrCodeValidation, "", "all attempts are DNF/DNS")
	}

	if expected := expectedAttempts(attempts, format, cutoff); entered != expected {
		return newError(ErrCodeValidation, "", "wrong attempt count: %d entered, %d expected", entered, expected)
	}
	return nil
}

// expectedAttempts resolves how many attempts the format and cutoff demand:
// the full format size, or only the cutoff phase when the cutoff was missed.
func expectedAttempts(attempts []int, format model.RoundFormat, cutoff *model.Cutoff) int {
	if cutoff != nil && !model.MakesCutoff(attempts, cutoff) {
		return cutoff.Attempts
	}
	return format.Attempts
}

// defaultFormat is the attempt format for results outside any round
// (video submissions): the event's default average attempt count.
func (e *Engine) defaultFormat(ev defs.Event) model.RoundFormat {
	switch ev.AverageAttempts {
	case 5:
		return model.RoundFormat{ID: "a", Attempts: 5, SortByAverage: true, DropBestWorst: true}
	case 3:
		return model.RoundFormat{ID: "m", Attempts: 3, SortByAverage: true}
	default:
		return model.RoundFormat{ID: "1", Attempts: 1}
	}
}

// deriveRegion computes the result's region fields from its participants:
// the shared region when all share one, else only the shared continental
// grouping when all share one, else neither.
func (e *Engine) deriveRegion(participants []Participant) (region, superRegion string) {
	if len(participants) == 0 {
		return "", ""
	}

	region = participants[0].Region
	superRegion = e.defs.ContinentOf(region)
	for _, p := range participants[1:] {
		if p.Region != region {
			region = ""
		}
		if e.defs.ContinentOf(p.Region) != superRegion {
			superRegion = ""
		}
	}
	if region == "" {
		// A shared continent can survive a mixed region set.
		return "", superRegion
	}
	return region, superRegion
}
