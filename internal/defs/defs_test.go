package defs

import (
	"testing"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencomp/resultsd/internal/model"
)

func TestDefault_Compiles(t *testing.T) {
	d := Default()

	require.NotEmpty(t, d.Events)
	require.NotEmpty(t, d.Continents)
	require.NotEmpty(t, d.Regions)
	assert.Len(t, d.Categories, 3)

	e, ok := d.Event("333")
	require.True(t, ok)
	assert.Equal(t, 5, e.AverageAttempts)
	assert.Equal(t, "time", e.Kind)
}

func TestDefault_HierarchyLookups(t *testing.T) {
	d := Default()

	assert.Equal(t, "EU", d.ContinentOf("DE"))
	assert.Equal(t, "", d.ContinentOf("XX"), "unknown region has no continent")

	label, err := d.RecordLabel("EU")
	require.NoError(t, err)
	assert.Equal(t, "ER", label)

	_, err = d.RecordLabel("XX")
	assert.Error(t, err)
}

func TestDefault_ScopeOfTag(t *testing.T) {
	d := Default()

	assert.Equal(t, model.ScopeWorld, d.ScopeOfTag("WR"))
	assert.Equal(t, model.ScopeNational, d.ScopeOfTag("NR"))
	assert.Equal(t, model.ScopeContinental, d.ScopeOfTag("ER"))
	assert.Equal(t, model.ScopeContinental, d.ScopeOfTag("NAR"))
	assert.Equal(t, model.ScopeNone, d.ScopeOfTag(""))
	assert.Equal(t, model.ScopeNone, d.ScopeOfTag("bogus"))
}

func TestDefault_AverageEligibility(t *testing.T) {
	d := Default()
	e, _ := d.Event("333")

	modern := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	historic := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.AverageEligible(e, 5, modern))
	assert.False(t, d.AverageEligible(e, 3, modern), "wrong attempt count")
	assert.True(t, d.AverageEligible(e, 3, historic), "any count before the cutoff")

	mbf, _ := d.Event("333mbf")
	assert.False(t, d.AverageEligible(mbf, 3, historic), "event without averages")
}

func compileString(t *testing.T, src string) (*Definitions, error) {
	t.Helper()
	return Compile(cuecontext.New().CompileString(src))
}

func TestCompile_RejectsDanglingContinent(t *testing.T) {
	_, err := compileString(t, `
events: {}
continents: {"EU": {name: "Europe", recordLabel: "ER"}}
regions: {"US": {name: "United States", continent: "NA"}}
categories: ["competitions"]
formats: {}
averageEligibilityCutoff: "2014-01-01"
`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "regions.US", ce.Field)
}

func TestCompile_RejectsReservedLabel(t *testing.T) {
	_, err := compileString(t, `
events: {}
continents: {"EU": {name: "Europe", recordLabel: "WR"}}
regions: {}
categories: ["competitions"]
formats: {}
averageEligibilityCutoff: "2014-01-01"
`)
	require.Error(t, err)
}

func TestCompile_RejectsDuplicateLabel(t *testing.T) {
	_, err := compileString(t, `
events: {}
continents: {
	"EU": {name: "Europe", recordLabel: "ER"}
	"AS": {name: "Asia", recordLabel: "ER"}
}
regions: {}
categories: ["competitions"]
formats: {}
averageEligibilityCutoff: "2014-01-01"
`)
	require.Error(t, err)
}

func TestCompile_RejectsBadFormat(t *testing.T) {
	_, err := compileString(t, `
events: {}
continents: {}
regions: {}
categories: ["competitions"]
formats: {"a": {attempts: 3, sortByAverage: true, dropBestWorst: true}}
averageEligibilityCutoff: "2014-01-01"
`)
	require.Error(t, err, "dropBestWorst needs five attempts")
}

func TestCompile_RejectsBadCutoffDate(t *testing.T) {
	_, err := compileString(t, `
events: {}
continents: {}
regions: {}
categories: ["competitions"]
formats: {}
averageEligibilityCutoff: "not-a-date"
`)
	require.Error(t, err)
}
