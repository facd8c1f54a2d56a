package pstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalj-go/fpcf/internal/property"
)

func mustFinal(t *testing.T, eop property.EOptionP) testProp {
	t.Helper()
	eps, ok := eop.(property.EPS)
	require.True(t, ok, "expected an EPS, got %T", eop)
	require.True(t, eps.IsFinal(), "expected a final value")
	return eps.UB.(testProp)
}

func TestStore_ScheduleEagerFinal(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")

	s := New(reg, WithParallelism(2))
	s.ScheduleEager("e1", k, func(e any) Result { return FinalResult{E: e, K: k, P: tp(5)} })

	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))
	require.NoError(t, s.WaitOnPhaseCompletion())

	got := mustFinal(t, s.Get("e1", k))
	assert.Equal(t, 5, got.v)
}

// TestStore_IntermediateChainConvergesOnDependeeFinal exercises the core
// refinement loop: B's computation observes A before A has a value,
// registers a continuation, and converges to a final value once A is
// published — regardless of which of the two entities' result reaches the
// updates worker first.
func TestStore_IntermediateChainConvergesOnDependeeFinal(t *testing.T) {
	reg := newTestRegistry()
	aKind, _ := reg.Register("A")
	bKind, _ := reg.Register("B")

	s := New(reg, WithParallelism(4))

	var bFrom func(seen []property.EOptionP) Result
	bFrom = func(seen []property.EOptionP) Result {
		if eps, ok := seen[0].(property.EPS); ok && eps.IsFinal() {
			return FinalResult{E: "b", K: bKind, P: tp(eps.UB.(testProp).v + 1)}
		}
		return IntermediateResult{
			E: "b", K: bKind,
			LB: tp(0), UB: tp(0),
			SeenDependees: seen,
			Cont:          bFrom,
			Hint:          Cheap,
		}
	}

	s.ScheduleEager("b", bKind, func(e any) Result {
		return bFrom([]property.EOptionP{s.Get("a", aKind)})
	})
	s.ScheduleEager("a", aKind, func(e any) Result { return FinalResult{E: e, K: aKind, P: tp(5)} })

	require.NoError(t, s.SetupPhase([]*property.Kind{aKind, bKind}, nil))
	require.NoError(t, s.WaitOnPhaseCompletion())

	got := mustFinal(t, s.Get("b", bKind))
	assert.Equal(t, 6, got.v)
}

func TestStore_FallbackInjectedWhenNoComputationRuns(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")
	k.Fallback = func(e any) property.Property { return tp(-1) }

	s := New(reg, WithParallelism(2))
	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))

	// Nothing will ever compute "ghost"; force it so the fallback round
	// treats it as wanted even though no depender is registered on it.
	s.Force("ghost", k)

	require.NoError(t, s.WaitOnPhaseCompletion())

	got := mustFinal(t, s.Get("ghost", k))
	assert.Equal(t, -1, got.v)
	assert.EqualValues(t, 1, s.Counters().FallbacksUsed)
}

func TestStore_SetRejectsExistingValue(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")

	s := New(reg, WithParallelism(1))
	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))

	// Set is accepted synchronously (it only asserts no lazy computation is
	// registered); the existing-value check happens on the updates worker,
	// so the second call's rejection surfaces as the phase's error.
	require.NoError(t, s.Set("e1", k, tp(1)))
	require.NoError(t, s.Set("e1", k, tp(2)))

	err := s.WaitOnPhaseCompletion()
	require.Error(t, err)
	violation, ok := AsContractViolation(err)
	require.True(t, ok)
	assert.Equal(t, SetOnExisting, violation.Kind)

	got := mustFinal(t, s.Get("e1", k))
	assert.Equal(t, 1, got.v, "the first Set must win")
}

func TestStore_SetRejectsLazyRegisteredKind(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")

	s := New(reg, WithParallelism(1))
	require.NoError(t, s.RegisterLazy(k, func(e any) Result {
		return FinalResult{E: e, K: k, P: tp(0)}
	}))

	err := s.Set("e1", k, tp(1))
	require.Error(t, err)
	_, ok := AsContractViolation(err)
	assert.True(t, ok)
}

func TestStore_CycleResolution(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Mutual")
	k.Meet = meetMax
	k.ResolveCycle = func(e any, members map[any]property.Property) property.Property {
		best := 0
		for _, p := range members {
			if v := p.(testProp).v; v > best {
				best = v
			}
		}
		return tp(best)
	}

	s := New(reg, WithParallelism(4))

	var contFor func(self any, other any) Continuation
	contFor = func(self, other any) Continuation {
		var c Continuation
		c = func(seen []property.EOptionP) Result {
			return IntermediateResult{
				E: self, K: k,
				LB: tp(1), UB: tp(1),
				SeenDependees: seen,
				Cont:          c,
				Hint:          Cheap,
			}
		}
		return c
	}

	s.ScheduleEager("x", k, func(e any) Result {
		seen := []property.EOptionP{s.Get("y", k)}
		return IntermediateResult{E: "x", K: k, LB: tp(1), UB: tp(1), SeenDependees: seen, Cont: contFor("x", "y"), Hint: Cheap}
	})
	s.ScheduleEager("y", k, func(e any) Result {
		seen := []property.EOptionP{s.Get("x", k)}
		return IntermediateResult{E: "y", K: k, LB: tp(1), UB: tp(1), SeenDependees: seen, Cont: contFor("y", "x"), Hint: Cheap}
	})

	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))
	require.NoError(t, s.WaitOnPhaseCompletion())

	xv := mustFinal(t, s.Get("x", k))
	yv := mustFinal(t, s.Get("y", k))
	assert.Equal(t, 1, xv.v)
	assert.Equal(t, 1, yv.v)
	assert.EqualValues(t, 1, s.Counters().ResolvedSCCs)
}

func TestStore_ForceTriggersLazyComputation(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")

	s := New(reg, WithParallelism(1))
	require.NoError(t, s.RegisterLazy(k, func(e any) Result {
		return FinalResult{E: e, K: k, P: tp(42)}
	}))
	require.NoError(t, s.SetupPhase(nil, nil))

	s.Force("e1", k)
	require.NoError(t, s.WaitOnPhaseCompletion())

	got := mustFinal(t, s.Get("e1", k))
	assert.Equal(t, 42, got.v)
}

func TestStore_IdempotentResultDropsRedundantDuplicate(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Size")

	s := New(reg, WithParallelism(1))
	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))

	s.HandleResult(IdempotentResult{Final: property.NewFinalEP("e1", k, tp(1))}, false, false)
	s.HandleResult(IdempotentResult{Final: property.NewFinalEP("e1", k, tp(1))}, false, false)

	require.NoError(t, s.WaitOnPhaseCompletion())

	assert.EqualValues(t, 1, s.Counters().RedundantIdempotent)
}

func TestStore_WaitOnPhaseCompletionReturnsForEmptyPhase(t *testing.T) {
	// Sanity check that WaitOnPhaseCompletion does not hang forever when a
	// phase legitimately has no work.
	reg := newTestRegistry()
	k, _ := reg.Register("Size")
	s := New(reg, WithParallelism(1))
	require.NoError(t, s.SetupPhase([]*property.Kind{k}, nil))

	done := make(chan error, 1)
	go func() { done <- s.WaitOnPhaseCompletion() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("an empty phase should reach quiescence immediately")
	}
}
