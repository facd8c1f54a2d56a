// Package harness provides a conformance testing framework for the
// property store.
//
// A Scenario wires a fresh Store's registrations and initial schedule in
// code — computations are Go closures, so there is no declarative file
// format the way a request/response conformance suite might use. Run
// drives the resulting phase to quiescence, collects every tracer
// callback into a trace, and evaluates the scenario's
// Assertions against the final table and counters.
//
// # Usage
//
//	scenario := &harness.Scenario{
//		Name:     "fallback_injection",
//		Registry: reg,
//		Build: func(s *pstore.Store) (computed, delayed []*property.Kind) {
//			s.Force("e1", sizeKind)
//			return []*property.Kind{sizeKind}, nil
//		},
//		Assertions: []harness.Assertion{
//			harness.FinalValue{Entity: "e1", Kind: sizeKind, Want: fallbackValue},
//		},
//	}
//	result, err := harness.Run(scenario)
//
// # Golden traces
//
// AssertGolden compares a Result's trace against testdata/golden/<name>.golden,
// regenerated with `go test ./internal/harness/... -update`. Golden
// comparison is only meaningful for scenarios that are deterministic under
// concurrency — WithParallelism(1) scenarios, or ones whose trace order
// does not depend on worker interleaving.
package harness
