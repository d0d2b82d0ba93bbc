// Package defs holds the compiled competition definitions: events, the
// region/continent hierarchy, record categories and round formats.
//
// Definitions are authored in CUE and compiled through the CUE Go API. A
// default set ships embedded in the binary; deployments can point the CLI
// at a directory of .cue files instead.
package defs

import (
	"fmt"
	"time"

	"github.com/opencomp/resultsd/internal/model"
)

// Event describes one discipline.
type Event struct {
	ID   string
	Name string

	// Kind is the attempt encoding family: "time", "number" or "multi".
	// The engine treats attempt values as opaque integers either way.
	Kind string

	// AverageAttempts is the attempt count an average record requires
	// (the default round size for the event). 0 means the event never
	// carries average records.
	AverageAttempts int
}

// Continent is one continental grouping with its record-type label.
type Continent struct {
	Code        string
	Name        string
	RecordLabel string
}

// Region is one country-level region.
type Region struct {
	Code      string
	Name      string
	Continent string
}

// Definitions is the compiled, validated definition set.
type Definitions struct {
	Events     map[string]Event
	Continents map[string]Continent
	Regions    map[string]Region
	Categories []string
	Formats    map[string]model.RoundFormat

	// AverageEligibilityCutoff is the fixed historical date before which
	// any attempt count is eligible for an average record.
	AverageEligibilityCutoff time.Time

	// labelToContinent indexes continental record labels for scope lookup.
	labelToContinent map[string]string
}

// Event looks up an event by ID.
func (d *Definitions) Event(id string) (Event, bool) {
	e, ok := d.Events[id]
	return e, ok
}

// Region looks up a region by code.
func (d *Definitions) Region(code string) (Region, bool) {
	r, ok := d.Regions[code]
	return r, ok
}

// ContinentOf returns the continent code for a region code, or "".
func (d *Definitions) ContinentOf(regionCode string) string {
	if r, ok := d.Regions[regionCode]; ok {
		return r.Continent
	}
	return ""
}

// RecordLabel returns the continental record label for a continent code.
func (d *Definitions) RecordLabel(continentCode string) (string, error) {
	c, ok := d.Continents[continentCode]
	if !ok {
		return "", fmt.Errorf("unknown continent %q", continentCode)
	}
	return c.RecordLabel, nil
}

// ScopeOfTag maps a stored tag label back to its record scope.
// Unknown labels map to ScopeNone.
func (d *Definitions) ScopeOfTag(tag string) model.RecordScope {
	switch tag {
	case "":
		return model.ScopeNone
	case model.TagWorld:
		return model.ScopeWorld
	case model.TagNational:
		return model.ScopeNational
	}
	if _, ok := d.labelToContinent[tag]; ok {
		return model.ScopeContinental
	}
	return model.ScopeNone
}

// ContinentalLabels returns every continental record label, for queries
// that need the full closed set (e.g. national-scope record lookup).
func (d *Definitions) ContinentalLabels() []string {
	labels := make([]string, 0, len(d.Continents))
	for _, c := range d.Continents {
		labels = append(labels, c.RecordLabel)
	}
	return labels
}

// ValidCategory reports whether c is a declared record category.
func (d *Definitions) ValidCategory(c string) bool {
	for _, known := range d.Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Format looks up a round format by ID.
func (d *Definitions) Format(id string) (model.RoundFormat, bool) {
	f, ok := d.Formats[id]
	return f, ok
}

// AverageEligible reports whether a result with the given attempt count and
// date may hold an average record for the event: the count must equal the
// event's default average attempt count, except before the historical
// eligibility cutoff where any count qualifies.
func (d *Definitions) AverageEligible(e Event, attemptCount int, date time.Time) bool {
	if e.AverageAttempts == 0 {
		return false
	}
	if date.Before(d.AverageEligibilityCutoff) {
		return true
	}
	return attemptCount == e.AverageAttempts
}
