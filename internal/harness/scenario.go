package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance scenario: a flow of engine operations with
// expectations on the resulting state.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Clock is the initial wall-clock date (YYYY-MM-DD). When empty the
	// clock starts at the latest submit date in the flow, which keeps
	// every result inside the historical-edit window.
	Clock string `yaml:"clock,omitempty"`

	// Rounds declares the contest rounds steps may reference by ID.
	Rounds []RoundDef `yaml:"rounds,omitempty"`

	// Flow is the ordered list of operations to execute.
	Flow []Step `yaml:"flow"`

	// Expect lists inline assertions on the final state, checked in
	// addition to the golden snapshot.
	Expect []StateExpect `yaml:"expect,omitempty"`
}

// RoundDef declares a contest round.
type RoundDef struct {
	ID             string `yaml:"id"`
	Event          string `yaml:"event"`
	Format         string `yaml:"format"`
	Final          bool   `yaml:"final,omitempty"`
	ProceedCount   int    `yaml:"proceedCount,omitempty"`
	ProceedPercent int    `yaml:"proceedPercent,omitempty"`
	CutoffValue    int    `yaml:"cutoffValue,omitempty"`
	CutoffAttempts int    `yaml:"cutoffAttempts,omitempty"`
	TimeLimit      int    `yaml:"timeLimit,omitempty"`
}

// Step is one flow entry. Exactly one of Submit, Update, Remove and Clock
// must be set. Fail names the error code the operation must return; an
// empty Fail means the operation must succeed.
type Step struct {
	Submit *SubmitStep `yaml:"submit,omitempty"`
	Update *UpdateStep `yaml:"update,omitempty"`
	Remove *RemoveStep `yaml:"remove,omitempty"`
	Clock  string      `yaml:"clock,omitempty"`

	Fail string `yaml:"fail,omitempty"`
}

// SubmitStep creates one result with a fixed ID.
type SubmitStep struct {
	ID       string `yaml:"id"`
	Event    string `yaml:"event"`
	Date     string `yaml:"date"`
	Attempts []int  `yaml:"attempts"`

	// Category defaults to "competitions".
	Category string `yaml:"category,omitempty"`

	// Regions lists one region code per participant; a single entry is
	// the common solo case. An empty list means one region-less
	// participant.
	Regions []string `yaml:"regions,omitempty"`

	// Round references a declared round; empty means a video submission.
	Round string `yaml:"round,omitempty"`

	// Submission overrides the video submission ID (default "sub-<id>").
	Submission string `yaml:"submission,omitempty"`
}

// UpdateStep rewrites one result's attempts.
type UpdateStep struct {
	ID       string `yaml:"id"`
	Attempts []int  `yaml:"attempts"`
	Round    string `yaml:"round,omitempty"`
}

// RemoveStep deletes one result.
type RemoveStep struct {
	ID    string `yaml:"id"`
	Round string `yaml:"round,omitempty"`
}

// StateExpect asserts fields of one final result. Nil pointer fields are
// not checked; Deleted asserts the row is gone.
type StateExpect struct {
	ID       string  `yaml:"id"`
	Single   *string `yaml:"single,omitempty"`
	Average  *string `yaml:"average,omitempty"`
	Ranking  *int    `yaml:"ranking,omitempty"`
	Proceeds *bool   `yaml:"proceeds,omitempty"`
	Deleted  bool    `yaml:"deleted,omitempty"`
}

// LoadScenario reads and parses one scenario file. Unknown YAML fields
// are rejected so typos fail loudly instead of asserting nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if len(sc.Flow) == 0 {
		return nil, fmt.Errorf("scenario %s: empty flow", path)
	}
	for i, step := range sc.Flow {
		set := 0
		for _, on := range []bool{step.Submit != nil, step.Update != nil, step.Remove != nil, step.Clock != ""} {
			if on {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("scenario %s: flow step %d must set exactly one operation", path, i+1)
		}
	}
	return &sc, nil
}
