package harness

import (
	"fmt"

	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/pstore"
	"github.com/opalj-go/fpcf/internal/pstore/trace"
)

// AssertionContext carries everything an Assertion needs to inspect a
// completed (or failed) phase.
type AssertionContext struct {
	Store    *pstore.Store
	Counters trace.Snapshot
	PhaseErr error
}

// Assertion validates one aspect of a completed scenario run. Evaluate
// returns a non-nil error describing the mismatch on failure.
type Assertion interface {
	Evaluate(ctx *AssertionContext) error
}

// FinalValue asserts that (Entity, Kind) holds a final value. If Equal is
// nil, only finality is checked.
type FinalValue struct {
	Entity any
	Kind   *property.Kind
	Want   property.Property
	Equal  func(a, b property.Property) bool
}

func (a FinalValue) Evaluate(ctx *AssertionContext) error {
	eop := ctx.Store.Get(a.Entity, a.Kind)
	eps, ok := eop.(property.EPS)
	if !ok || !eps.IsFinal() {
		return fmt.Errorf("final_value %v/%s: expected a final value, got %T", a.Entity, a.Kind.Name(), eop)
	}
	if a.Equal != nil && a.Want != nil && !a.Equal(eps.UB, a.Want) {
		return fmt.Errorf("final_value %v/%s: got %v, want %v", a.Entity, a.Kind.Name(), eps.UB, a.Want)
	}
	return nil
}

// NotFinal asserts that (Entity, Kind) has no value yet, or an
// intermediate one — it must not have been finalized.
type NotFinal struct {
	Entity any
	Kind   *property.Kind
}

func (a NotFinal) Evaluate(ctx *AssertionContext) error {
	eop := ctx.Store.Get(a.Entity, a.Kind)
	if eps, ok := eop.(property.EPS); ok && eps.IsFinal() {
		return fmt.Errorf("not_final %v/%s: expected a non-final value, got final %v", a.Entity, a.Kind.Name(), eps.UB)
	}
	return nil
}

// CounterAtLeast asserts that a named counter reached at least Want.
type CounterAtLeast struct {
	Name string
	Want int64
	Get  func(trace.Snapshot) int64
}

func (a CounterAtLeast) Evaluate(ctx *AssertionContext) error {
	got := a.Get(ctx.Counters)
	if got < a.Want {
		return fmt.Errorf("counter %s: got %d, want >= %d", a.Name, got, a.Want)
	}
	return nil
}

// CounterEquals asserts that a named counter is exactly Want.
type CounterEquals struct {
	Name string
	Want int64
	Get  func(trace.Snapshot) int64
}

func (a CounterEquals) Evaluate(ctx *AssertionContext) error {
	got := a.Get(ctx.Counters)
	if got != a.Want {
		return fmt.Errorf("counter %s: got %d, want %d", a.Name, got, a.Want)
	}
	return nil
}

// NoPhaseError asserts the phase completed without error.
type NoPhaseError struct{}

func (NoPhaseError) Evaluate(ctx *AssertionContext) error {
	if ctx.PhaseErr != nil {
		return fmt.Errorf("expected no phase error, got %v", ctx.PhaseErr)
	}
	return nil
}

// ExpectViolation asserts the phase failed with a contract violation of
// the given kind.
type ExpectViolation struct {
	Kind pstore.ViolationKind
}

func (a ExpectViolation) Evaluate(ctx *AssertionContext) error {
	v, ok := pstore.AsContractViolation(ctx.PhaseErr)
	if !ok {
		return fmt.Errorf("expected a contract violation %s, got %v", a.Kind, ctx.PhaseErr)
	}
	if v.Kind != a.Kind {
		return fmt.Errorf("expected violation kind %s, got %s", a.Kind, v.Kind)
	}
	return nil
}
