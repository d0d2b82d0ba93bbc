package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".yaml"), func(t *testing.T) {
			RunGolden(t, path)
		})
	}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
floww:
  - submit: {id: a, event: relay3, date: "2020-01-05", attempts: [9000]}
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenarioRejectsMissingName(t *testing.T) {
	path := writeScenario(t, `
flow:
  - submit: {id: a, event: relay3, date: "2020-01-05", attempts: [9000]}
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "missing name")
}

func TestLoadScenarioRejectsAmbiguousStep(t *testing.T) {
	path := writeScenario(t, `
name: ambiguous
flow:
  - submit: {id: a, event: relay3, date: "2020-01-05", attempts: [9000]}
    remove: {id: a}
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "exactly one operation")
}

func TestRunReportsExpectationMismatch(t *testing.T) {
	wrong := "NR"
	sc := &Scenario{
		Name: "mismatch",
		Flow: []Step{
			{Submit: &SubmitStep{ID: "a", Event: "relay3", Date: "2020-01-05", Attempts: []int{9000}, Regions: []string{"US"}}},
		},
		Expect: []StateExpect{{ID: "a", Single: &wrong}},
	}

	out, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, out.Pass)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], `single tag "WR"`)
}

func TestRunReportsUnexpectedSuccess(t *testing.T) {
	sc := &Scenario{
		Name: "unexpected-success",
		Flow: []Step{
			{
				Submit: &SubmitStep{ID: "a", Event: "relay3", Date: "2020-01-05", Attempts: []int{9000}, Regions: []string{"US"}},
				Fail:   "VALIDATION_FAILED",
			},
		},
	}

	out, err := Run(sc)
	require.NoError(t, err)
	assert.False(t, out.Pass)
}
