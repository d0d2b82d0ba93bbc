package harness

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/opencomp/resultsd/internal/model"
)

// Snapshot renders an outcome's final state into the line format stored
// in golden files: one line per surviving result (ordered by ID) and one
// per audit entry (in write order). All fields are plain text so golden
// diffs read like a ledger.
func Snapshot(sc *Scenario, out *Outcome) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", sc.Name)

	b.WriteString("\nresults:\n")
	for _, r := range out.Results {
		writeResultLine(&b, r)
	}

	b.WriteString("\naudit:\n")
	for _, row := range out.Audit {
		fmt.Fprintf(&b, "  %s %s %s old=%s new=%s\n",
			row.ResultID, row.Metric, row.Op, orDash(row.OldTag), orDash(row.NewTag))
	}

	return []byte(b.String())
}

func writeResultLine(b *strings.Builder, r *model.Result) {
	fmt.Fprintf(b, "  %s date=%s cat=%s best=%d avg=%d single=%s average=%s region=%s super=%s",
		r.ID, r.Date.Format(time.DateOnly), r.Category, r.Best, r.Average,
		orDash(r.SingleRecord), orDash(r.AverageRecord),
		orDash(r.RegionCode), orDash(r.SuperRegionCode))
	if r.RoundID != "" {
		fmt.Fprintf(b, " round=%s rank=%d proceeds=%t", r.RoundID, r.Ranking, r.Proceeds)
	}
	b.WriteByte('\n')
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RunGolden loads and runs one scenario file, fails the test on any step
// or expectation mismatch, and compares the rendered snapshot against
// testdata/<name>.golden.
func RunGolden(t *testing.T, path string) {
	t.Helper()

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	out, err := Run(sc)
	if err != nil {
		t.Fatalf("run scenario %s: %v", sc.Name, err)
	}
	for _, msg := range out.Errors {
		t.Errorf("scenario %s: %s", sc.Name, msg)
	}

	g := goldie.New(t)
	g.Assert(t, sc.Name, Snapshot(sc, out))
}
