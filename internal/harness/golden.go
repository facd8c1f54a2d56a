package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the canonical view of a scenario's trace used for
// golden file comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// AssertGolden compares result's trace against testdata/golden/<name>.golden.
// Regenerate fixtures with `go test ./internal/harness/... -update`.
//
// Only meaningful for scenarios whose trace order is deterministic —
// typically WithParallelism(1), since the compute workers race for tasks
// and the relative order of their TaskScheduled/UpdateHandled events is
// otherwise not guaranteed.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	snap := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace snapshot: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
