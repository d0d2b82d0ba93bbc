package defs

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/opencomp/resultsd/internal/model"
)

//go:embed defaults.cue
var defaultsCUE string

// CompileError reports a definition that failed validation, with the field
// path that caused it.
type CompileError struct {
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// rawDefinitions mirrors the CUE schema for decoding.
type rawDefinitions struct {
	Events map[string]struct {
		Name            string `json:"name"`
		Kind            string `json:"kind"`
		AverageAttempts int    `json:"averageAttempts"`
	} `json:"events"`
	Continents map[string]struct {
		Name        string `json:"name"`
		RecordLabel string `json:"recordLabel"`
	} `json:"continents"`
	Regions map[string]struct {
		Name      string `json:"name"`
		Continent string `json:"continent"`
	} `json:"regions"`
	Categories []string `json:"categories"`
	Formats    map[string]struct {
		Attempts      int  `json:"attempts"`
		SortByAverage bool `json:"sortByAverage"`
		DropBestWorst bool `json:"dropBestWorst"`
	} `json:"formats"`
	AverageEligibilityCutoff string `json:"averageEligibilityCutoff"`
}

// Compile parses a CUE value into a validated definition set.
//
// The value is expected to hold the top-level fields events, continents,
// regions, categories, formats and averageEligibilityCutoff. Validation
// rejects dangling continent references, duplicate record labels, reserved
// labels and non-positive attempt counts.
func Compile(v cue.Value) (*Definitions, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("invalid CUE value: %w", err)
	}

	var raw rawDefinitions
	if err := v.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding definitions: %w", err)
	}

	d := &Definitions{
		Events:           make(map[string]Event, len(raw.Events)),
		Continents:       make(map[string]Continent, len(raw.Continents)),
		Regions:          make(map[string]Region, len(raw.Regions)),
		Categories:       raw.Categories,
		Formats:          make(map[string]model.RoundFormat, len(raw.Formats)),
		labelToContinent: make(map[string]string, len(raw.Continents)),
	}

	for id, e := range raw.Events {
		switch e.Kind {
		case "time", "number", "multi":
		default:
			return nil, &CompileError{Field: "events." + id, Message: fmt.Sprintf("unknown kind %q", e.Kind)}
		}
		if e.AverageAttempts < 0 {
			return nil, &CompileError{Field: "events." + id, Message: "averageAttempts must not be negative"}
		}
		d.Events[id] = Event{ID: id, Name: e.Name, Kind: e.Kind, AverageAttempts: e.AverageAttempts}
	}

	for code, c := range raw.Continents {
		if c.RecordLabel == "" {
			return nil, &CompileError{Field: "continents." + code, Message: "recordLabel is required"}
		}
		if c.RecordLabel == model.TagWorld || c.RecordLabel == model.TagNational {
			return nil, &CompileError{Field: "continents." + code, Message: fmt.Sprintf("label %q is reserved", c.RecordLabel)}
		}
		if prev, dup := d.labelToContinent[c.RecordLabel]; dup {
			return nil, &CompileError{Field: "continents." + code, Message: fmt.Sprintf("label %q already used by %s", c.RecordLabel, prev)}
		}
		d.Continents[code] = Continent{Code: code, Name: c.Name, RecordLabel: c.RecordLabel}
		d.labelToContinent[c.RecordLabel] = code
	}

	for code, r := range raw.Regions {
		if _, ok := d.Continents[r.Continent]; !ok {
			return nil, &CompileError{Field: "regions." + code, Message: fmt.Sprintf("unknown continent %q", r.Continent)}
		}
		d.Regions[code] = Region{Code: code, Name: r.Name, Continent: r.Continent}
	}

	if len(d.Categories) == 0 {
		return nil, &CompileError{Field: "categories", Message: "at least one record category is required"}
	}
	seen := make(map[string]bool, len(d.Categories))
	for _, c := range d.Categories {
		if seen[c] {
			return nil, &CompileError{Field: "categories", Message: fmt.Sprintf("duplicate category %q", c)}
		}
		seen[c] = true
	}

	for id, f := range raw.Formats {
		if f.Attempts <= 0 {
			return nil, &CompileError{Field: "formats." + id, Message: "attempts must be positive"}
		}
		if f.DropBestWorst && f.Attempts != 5 {
			return nil, &CompileError{Field: "formats." + id, Message: "dropBestWorst requires five attempts"}
		}
		d.Formats[id] = model.RoundFormat{
			ID:            id,
			Attempts:      f.Attempts,
			SortByAverage: f.SortByAverage,
			DropBestWorst: f.DropBestWorst,
		}
	}

	cutoff, err := time.Parse(time.DateOnly, raw.AverageEligibilityCutoff)
	if err != nil {
		return nil, &CompileError{Field: "averageEligibilityCutoff", Message: fmt.Sprintf("not a date: %v", err)}
	}
	d.AverageEligibilityCutoff = cutoff

	return d, nil
}

// Default compiles the embedded default definition set.
// Panics on failure: the embedded file is validated by tests.
func Default() *Definitions {
	ctx := cuecontext.New()
	v := ctx.CompileString(defaultsCUE)
	d, err := Compile(v)
	if err != nil {
		panic(fmt.Sprintf("embedded definitions invalid: %v", err))
	}
	return d
}

// LoadDir compiles every .cue file in a directory into one definition set.
// The files are unified by the CUE loader before compilation, so the set
// may be split across files.
func LoadDir(dir string) (*Definitions, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}
	return Compile(value)
}
