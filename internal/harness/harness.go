package harness

import (
	"fmt"

	"github.com/opalj-go/fpcf/internal/pstore"
)

// collectingTracer implements pstore/trace.Tracer, recording every
// callback as a TraceEvent in the order the store emits them (TaskScheduled
// from the compute workers, every other event from the updates worker or
// the phase controller). A
// scenario runs exactly one phase, so every event shares the same phase id;
// it is accepted to satisfy the interface but left out of the recorded
// TraceEvent so golden traces stay stable across runs (a per-phase uuid
// would otherwise make every comparison fail).
type collectingTracer struct {
	events []TraceEvent
}

func (t *collectingTracer) TaskScheduled(phase, kind, entity string) {
	t.events = append(t.events, TraceEvent{Variant: "TaskScheduled", Kind: kind, Entity: entity})
}

func (t *collectingTracer) UpdateHandled(phase, kind, entity, variant string) {
	t.events = append(t.events, TraceEvent{Variant: "UpdateHandled", Kind: kind, Entity: entity, Detail: variant})
}

func (t *collectingTracer) DependerNotified(phase, depender, dependee string) {
	t.events = append(t.events, TraceEvent{Variant: "DependerNotified", Kind: dependee, Entity: depender})
}

func (t *collectingTracer) CycleResolved(phase string, members []string) {
	t.events = append(t.events, TraceEvent{Variant: "CycleResolved", Detail: fmt.Sprintf("%v", members)})
}

func (t *collectingTracer) FallbackUsed(phase, kind, entity string) {
	t.events = append(t.events, TraceEvent{Variant: "FallbackUsed", Kind: kind, Entity: entity})
}

func (t *collectingTracer) QuiescenceReached(phase string, round int) {
	t.events = append(t.events, TraceEvent{Variant: "QuiescenceReached", Detail: fmt.Sprintf("round=%d", round)})
}

// Run executes scenario's Build step against a freshly constructed Store,
// drives the resulting phase to completion, and evaluates every Assertion
// against the outcome. A non-nil phase error is passed to Assertions
// rather than returned directly — scenarios that expect a contract
// violation assert on it via ExpectViolation.
func Run(scenario *Scenario) (*Result, error) {
	if scenario.Registry == nil {
		return nil, fmt.Errorf("scenario %q: Registry is required", scenario.Name)
	}
	if scenario.Build == nil {
		return nil, fmt.Errorf("scenario %q: Build is required", scenario.Name)
	}

	tr := &collectingTracer{}
	opts := append([]pstore.Option{pstore.WithTracer(tr)}, scenario.Options...)
	s := pstore.New(scenario.Registry, opts...)

	computed, delayed := scenario.Build(s)
	if err := s.SetupPhase(computed, delayed); err != nil {
		return nil, fmt.Errorf("scenario %q: SetupPhase: %w", scenario.Name, err)
	}
	phaseErr := s.WaitOnPhaseCompletion()

	result := NewResult()
	result.Trace = tr.events

	actx := &AssertionContext{Store: s, Counters: s.Counters(), PhaseErr: phaseErr}
	for i, a := range scenario.Assertions {
		if err := a.Evaluate(actx); err != nil {
			result.AddError(fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return result, nil
}
