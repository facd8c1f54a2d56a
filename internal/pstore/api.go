package pstore

import (
	"context"
	"fmt"

	"github.com/opalj-go/fpcf/internal/property"
)

// RegisterLazy registers k's lazy computation. Pre-phase only; at most once
// per kind.
func (s *Store) RegisterLazy(k *property.Kind, c Computation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phaseStarted {
		return newViolation(LateLazyRegistration, nil, fmt.Sprintf("kind %s registered after phase start", k.Name()))
	}
	if _, exists := s.lazy[k.ID()]; exists {
		return fmt.Errorf("pstore: kind %s already has a registered lazy computation", k.Name())
	}
	s.lazy[k.ID()] = c
	s.table.ensureKind(k)
	return nil
}

// RegisterFastTrack registers an eager approximator used on query misses
// when the store is configured with FastTrack enabled.
func (s *Store) RegisterFastTrack(k *property.Kind, c Computation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fastTrack[k.ID()] = c
}

// ScheduleEager adds an initial compute task for (e, k).
func (s *Store) ScheduleEager(e any, k *property.Kind, c Computation) {
	s.table.ensureKind(k)
	s.pool.submitTask(computeTask{
		label: initialComputation,
		e:     e,
		k:     k,
		run:   func() Result { return c(e) },
	})
}

// Force marks (e, k) as forced, so the phase controller gives it a fallback
// if it still has no value at quiescence, and triggers its lazy computation
// if one is registered and it has not already run. A forced pair that holds
// an intermediate value at quiescence gets no special treatment. Idempotent.
func (s *Store) Force(e any, k *property.Kind) {
	key := keyOf(e, k)
	s.pool.submitUpdateFunc(func() {
		s.forced[key] = true
		s.triggerLazyIfNeeded(e, k)
	})
}

// Set provides an externally computed final value. Asserts no lazy
// computation is registered for p's kind, and — per DESIGN.md Open
// Question 3 — rejects any entity that already has a value, in both debug
// and release mode.
func (s *Store) Set(e any, k *property.Kind, p property.Property) error {
	s.mu.Lock()
	_, hasLazy := s.lazy[k.ID()]
	s.mu.Unlock()
	if hasLazy {
		return newViolation(SetWithLazyRegistered, e, fmt.Sprintf("kind %s has a registered lazy computation", k.Name()))
	}
	s.table.ensureKind(k)
	s.pool.handoffResult(updateTask{
		result: setResult{e: e, k: k, p: p},
		k:      k,
	})
	return nil
}

// setResult is an internal result variant used only to route Set's
// existing-value check through the single-writer dispatcher, since table
// reads for the check must be serialized with concurrent publishes.
type setResult struct {
	resultBase
	e any
	k *property.Kind
	p property.Property
}

// Get queries (e, k). On a miss: fast-track if enabled and available,
// otherwise fallback immediately if k is neither computed nor delayed,
// otherwise trigger the lazy computation and return EPK.
func (s *Store) Get(e any, k *property.Kind) property.EOptionP {
	s.table.ensureKind(k)
	if eps, ok := s.table.get(e, k); ok {
		return eps
	}

	s.mu.Lock()
	ft, hasFastTrack := s.fastTrack[k.ID()]
	computed := s.computedKinds[k.ID()]
	delayed := s.delayedKinds[k.ID()]
	s.mu.Unlock()

	if s.cfg.FastTrack && hasFastTrack {
		s.counters.FastTrackHits.Add(1)
		result := ft(e)
		if fr, ok := result.(FinalResult); ok {
			s.HandleResult(IdempotentResult{Final: property.NewFinalEP(fr.E, fr.K, fr.P)}, false, false)
		}
		return property.EPK{E: e, K: k}
	}

	if !computed && !delayed {
		s.pool.submitUpdateFunc(func() {
			if _, ok := s.table.get(e, k); !ok {
				s.injectFallback(e, k)
			}
		})
		return property.EPK{E: e, K: k}
	}

	s.triggerLazyIfNeeded(e, k)
	return property.EPK{E: e, K: k}
}

// triggerLazyIfNeeded appends an initial computation task for (e, k) if a
// lazy computation is registered and it has not already been triggered —
// the per-kind "already-triggered" set guarantees at-most-once triggering,
// checked and set only on the updates worker.
func (s *Store) triggerLazyIfNeeded(e any, k *property.Kind) {
	s.mu.Lock()
	c, ok := s.lazy[k.ID()]
	s.mu.Unlock()
	if !ok {
		return
	}
	key := keyOf(e, k)
	s.pool.submitUpdateFunc(func() {
		if s.alreadyTriggered[key] {
			return
		}
		s.alreadyTriggered[key] = true
		s.counters.ScheduledLazy.Add(1)
		s.pool.submitTask(computeTask{
			label: triggeredLazyComputation,
			e:     e,
			k:     k,
			run:   func() Result { return c(e) },
		})
	})
}

// SetupPhase starts a phase: fixes the computed/delayed kind universe and
// starts the worker pool. May not overlap with running work.
func (s *Store) SetupPhase(computedKinds, delayedKinds []*property.Kind) error {
	s.mu.Lock()
	if s.phaseStarted {
		s.mu.Unlock()
		return fmt.Errorf("pstore: a phase is already running")
	}
	s.phaseStarted = true
	s.phaseID = newPhaseID()
	for _, k := range computedKinds {
		s.computedKinds[k.ID()] = true
		s.table.ensureKind(k)
	}
	for _, k := range delayedKinds {
		s.delayedKinds[k.ID()] = true
		s.table.ensureKind(k)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.ctx, s.cancel = ctx, cancel
	s.startWorkers(ctx)
	return nil
}

// WaitOnPhaseCompletion blocks until the phase reaches quiescence (all
// fallbacks injected, all closed SCCs resolved, all collaborative orphans
// finalized) and returns the first worker/contract-violation error, if
// any.
func (s *Store) WaitOnPhaseCompletion() error {
	defer func() {
		s.cancel()
		s.wg.Wait()
		s.mu.Lock()
		s.phaseStarted = false
		s.mu.Unlock()
	}()
	return s.runQuiescenceLoop()
}
