package pstore

import (
	"fmt"

	"github.com/opalj-go/fpcf/internal/property"
)

// HandleResult hands a result to the updates worker for dispatch. Get uses
// it for fast-track results, and it is safe to call directly for results a
// caller already has in hand (e.g. replaying a cached value); compute
// workers hand their results over through pool.handoffResult, the same
// queue HandleResult feeds. forceEvaluation re-asserts the (entity,
// kind) pair as forced (see Force); passing true here outside of Force's
// own bookkeeping is rarely useful but matches the three-argument
// signature. forceDependerNotification is OR'd into an IntermediateResult's
// own flag so it survives a stale re-run.
func (s *Store) HandleResult(result Result, forceEvaluation, forceDependerNotification bool) {
	if ir, ok := result.(IntermediateResult); ok && forceDependerNotification {
		ir.ForceDependerNotification = true
		result = ir
	}
	if forceEvaluation {
		if e, k, ok := resultSubject(result); ok {
			key := keyOf(e, k)
			s.pool.submitUpdateFunc(func() { s.forced[key] = true })
		}
	}
	s.pool.handoffResult(updateTask{result: result, k: resultKind(result)})
}

func resultSubject(r Result) (any, *property.Kind, bool) {
	switch v := r.(type) {
	case FinalResult:
		return v.E, v.K, true
	case IntermediateResult:
		return v.E, v.K, true
	case PartialResult:
		return v.E, v.K, true
	case ExternalResult:
		return v.E, v.K, true
	case IdempotentResult:
		return v.Final.E, v.Final.K, true
	default:
		return nil, nil, false
	}
}

func resultKind(r Result) *property.Kind {
	_, k, _ := resultSubject(r)
	return k
}

// dispatch interprets one Result variant, mutating the table and graph.
// Called only from the updates worker — the single writer.
func (s *Store) dispatch(u updateTask) {
	if u.initiateLazy != nil {
		u.initiateLazy()
		return
	}
	s.dispatchResult(u.result, u.forceDependerNotification)
}

func (s *Store) dispatchResult(r Result, forceNotify bool) {
	switch v := r.(type) {
	case NoResult:
		// nothing to store.

	case FinalResult:
		s.trace().UpdateHandled(s.phaseID, traceName(v.K), fmt.Sprintf("%v", v.E), "Result")
		s.publishFinal(v.E, v.K, v.P)

	case MultiResult:
		s.trace().UpdateHandled(s.phaseID, "-", "-", "MultiResult")
		for _, fr := range v.Results {
			s.publishFinal(fr.E, fr.K, fr.P)
		}

	case PartialResult:
		s.dispatchPartial(v)

	case IncrementalResult:
		s.dispatchResult(v.Current, forceNotify)
		for _, fu := range v.FollowUps {
			s.scheduleFollowUp(fu, v.Hint)
		}

	case Results:
		for _, inner := range v.List {
			s.dispatchResult(inner, forceNotify)
		}

	case IntermediateResult:
		if forceNotify {
			v.ForceDependerNotification = true
		}
		s.dispatchIntermediate(v)

	case IdempotentResult:
		s.dispatchIdempotent(v)

	case ExternalResult:
		s.trace().UpdateHandled(s.phaseID, traceName(v.K), fmt.Sprintf("%v", v.E), "ExternalResult")
		s.table.put(property.NewFinalEP(v.E, v.K, v.P))
		s.notifyDependers(keyOf(v.E, v.K), true)

	case *csccResult:
		s.dispatchCSCC(v)

	case setResult:
		s.dispatchSet(v)

	default:
		panic(fmt.Sprintf("pstore: unknown result variant %T", r))
	}
}

// publishFinal stores a final value, notifies dependers, and retires every
// piece of metadata the (entity, kind) pair was carrying.
func (s *Store) publishFinal(e any, k *property.Kind, p property.Property) {
	key := keyOf(e, k)

	if prev, ok := s.table.get(e, k); ok && prev.IsFinal() {
		if s.cfg.Debug {
			s.reportViolation(newViolation(MutateFinal, e, fmt.Sprintf("kind %s already final", k.Name())))
		}
		return
	}

	s.table.put(property.NewFinalEP(e, k, p))
	s.graph.clearDependerEdges(key) // this entity/kind is no longer anyone's depender
	delete(s.forced, key)

	s.notifyDependers(key, true)
}

// notifyDependers re-runs the continuation of every depender of key,
// feeding back the table's current value for key at this position in the
// continuation's seen slice. relevant gates whether a non-final update
// notifies at all — callers pass true for final/idempotent publishes,
// which are always relevant.
func (s *Store) notifyDependers(key depKey, relevant bool) {
	for _, dk := range s.graph.dependersOf(key) {
		entry := s.graph.continuations[dk]
		if entry == nil {
			continue
		}
		if !relevant && !entry.forceNotification {
			continue
		}
		s.trace().DependerNotified(s.phaseID, fmt.Sprintf("%v", dk.E), fmt.Sprintf("%v", key.E))

		newSeen := make([]property.EOptionP, len(entry.seen))
		for i, old := range entry.seen {
			newSeen[i] = s.currentEOptionP(old)
		}

		dependerKind := s.kindByID(dk.KindID)
		force := entry.forceNotification
		cont := entry.cont

		// Clear dk's dependee edges and continuation entry before
		// scheduling its re-run. Otherwise a second dependee of dk
		// updating before this re-run's result comes back would find the
		// same stale entry still registered and schedule a second
		// concurrent compute task for dk — two tasks racing on one
		// (entity, kind). dispatchIntermediate re-registers a fresh set
		// once the re-run actually produces a result.
		s.graph.clearDependerEdges(dk)

		s.runOrSchedule(onUpdateContinuation, dk.E, dependerKind, entry.hint, force, func() Result {
			r := cont(newSeen)
			if next, ok := r.(IntermediateResult); ok && force {
				next.ForceDependerNotification = true
				return next
			}
			return r
		})
	}
}

// runOrSchedule implements the Cheap/Expensive continuation path: Cheap
// continuations are invoked inline and their result dispatched in the same
// call, avoiding a deque round-trip; Expensive continuations become a
// compute task.
func (s *Store) runOrSchedule(label taskKind, e any, k *property.Kind, hint Hint, forceNotify bool, compute func() Result) {
	if hint == Cheap {
		s.dispatchResult(compute(), forceNotify)
		return
	}
	s.pool.submitTask(computeTask{
		label: label,
		e:     e,
		k:     k,
		run:   compute,
	})
}

func (s *Store) dispatchPartial(v PartialResult) {
	key := keyOf(v.E, v.K)
	cur, _ := s.table.get(v.E, v.K)
	var curP property.Property
	if cur.LB != nil {
		curP = cur.UB
	}
	next := v.F(curP)
	if next == nil {
		s.counters.UselessPartial.Add(1)
		s.trace().UpdateHandled(s.phaseID, traceName(v.K), fmt.Sprintf("%v", v.E), "PartialResult(useless)")
		return
	}
	merged := next
	if v.K.Meet != nil && curP != nil {
		merged = v.K.Meet(curP, next)
	}
	s.table.put(property.EPS{E: v.E, K: v.K, LB: merged, UB: merged, Final: false})
	s.notifyDependers(key, true)
}

func (s *Store) scheduleFollowUp(fu FollowUp, hint Hint) {
	s.runOrSchedule(initialComputation, fu.E, fu.K, hint, false, func() Result {
		return fu.C(fu.E)
	})
}

// dispatchIntermediate implements the core refinement loop.
func (s *Store) dispatchIntermediate(v IntermediateResult) {
	key := keyOf(v.E, v.K)

	changed := false
	newSeen := make([]property.EOptionP, len(v.SeenDependees))
	for i, old := range v.SeenDependees {
		cur := s.currentEOptionP(old)
		newSeen[i] = cur
		if eOptionPChanged(old, cur) {
			changed = true
		}
	}

	if changed {
		s.runOrSchedule(onUpdateContinuation, v.E, v.K, v.Hint, v.ForceDependerNotification, func() Result {
			r := v.Cont(newSeen)
			if next, ok := r.(IntermediateResult); ok && v.ForceDependerNotification {
				next.ForceDependerNotification = true
				return next
			}
			return r
		})
		return
	}

	if s.cfg.Debug {
		if prev, ok := s.table.get(v.E, v.K); ok {
			if prev.IsFinal() {
				s.reportViolation(newViolation(MutateFinal, v.E, fmt.Sprintf("kind %s already final", v.K.Name())))
				return
			}
			if v.K.CheckIsEqualOrBetter != nil {
				if !v.K.CheckIsEqualOrBetter(prev.LB, v.LB) || !v.K.CheckIsEqualOrBetter(v.UB, prev.UB) {
					s.reportViolation(newViolation(IllegalRefinement, v.E,
						fmt.Sprintf("kind %s: update not monotone", v.K.Name())))
					return
				}
			}
		}
	}

	prev, hadPrev := s.table.get(v.E, v.K)
	relevant := !hadPrev || !propertiesEqual(prev.LB, v.LB) || !propertiesEqual(prev.UB, v.UB)

	s.table.put(property.NewIntermediateEP(v.E, v.K, v.LB, v.UB))
	s.trace().UpdateHandled(s.phaseID, traceName(v.K), fmt.Sprintf("%v", v.E), "IntermediateResult")

	s.graph.setDependerEdges(key, dependeeKeys(v.SeenDependees), &continuationEntry{
		cont:              v.Cont,
		hint:              v.Hint,
		seen:              v.SeenDependees,
		forceNotification: v.ForceDependerNotification,
	})

	s.notifyDependers(key, relevant || v.ForceDependerNotification)
}

func dependeeKeys(seen []property.EOptionP) []depKey {
	out := make([]depKey, len(seen))
	for i, eop := range seen {
		out[i] = keyOf(eop.Entity(), eop.Kind())
	}
	return out
}

func (s *Store) dispatchIdempotent(v IdempotentResult) {
	key := keyOf(v.Final.E, v.Final.K)
	if _, ok := s.table.get(v.Final.E, v.Final.K); ok {
		s.counters.RedundantIdempotent.Add(1)
		if s.cfg.Debug {
			// DESIGN.md Open Question 1: debug mode treats an unequal
			// existing value as a contract violation; equal values (or
			// release mode) are silently dropped.
			if cur, _ := s.table.get(v.Final.E, v.Final.K); !propertiesEqual(cur.UB, v.Final.UB) {
				s.reportViolation(newViolation(IdempotentMismatch, v.Final.E,
					fmt.Sprintf("kind %s: idempotent result disagreed with existing value", v.Final.K.Name())))
			}
		}
		return
	}
	s.trace().UpdateHandled(s.phaseID, traceName(v.Final.K), fmt.Sprintf("%v", v.Final.E), "IdempotentResult")
	s.table.put(v.Final)
	if v.Final.IsFinal() {
		s.graph.clearDependerEdges(key)
		delete(s.forced, key)
	}
	s.notifyDependers(key, true)
}

func (s *Store) dispatchCSCC(v *csccResult) {
	members := make(map[depKey]bool, len(v.members))
	for _, m := range v.members {
		members[keyOf(m.Entity(), m.Kind())] = true
	}
	s.graph.clearInternalLinks(members)

	names := make([]string, 0, len(v.members))
	for _, m := range v.members {
		e, k := m.Entity(), m.Kind()
		names = append(names, fmt.Sprintf("%s(%v)", k.Name(), e))
		p := k.ResolveCycle(e, memberValues(v.members))
		s.table.put(property.NewFinalEP(e, k, p))
		delete(s.forced, keyOf(e, k))
		s.notifyDependers(keyOf(e, k), true)
	}
	s.counters.ResolvedSCCs.Add(1)
	s.trace().CycleResolved(s.phaseID, names)
}

func memberValues(members []property.EOptionP) map[any]property.Property {
	out := make(map[any]property.Property, len(members))
	for _, m := range members {
		if eps, ok := m.(property.EPS); ok {
			out[m.Entity()] = eps.UB
		}
	}
	return out
}

// dispatchSet publishes an externally supplied value, rejecting entities
// that already carry one (DESIGN.md Open Question 3).
func (s *Store) dispatchSet(v setResult) {
	key := keyOf(v.e, v.k)
	if _, ok := s.table.get(v.e, v.k); ok {
		s.reportViolation(newViolation(SetOnExisting, v.e,
			fmt.Sprintf("kind %s: Set called on an entity that already has a value", v.k.Name())))
		return
	}
	s.trace().UpdateHandled(s.phaseID, traceName(v.k), fmt.Sprintf("%v", v.e), "Set")
	s.table.put(property.NewFinalEP(v.e, v.k, v.p))
	s.graph.clearDependerEdges(key)
	delete(s.forced, key)
	s.notifyDependers(key, true)
}

// injectFallback stores k's fallback value for e, through the same
// idempotent path a client's own IdempotentResult would take, so a
// concurrent late-arriving real result still wins if it beats this one to
// the updates worker.
func (s *Store) injectFallback(e any, k *property.Kind) {
	if k.Fallback == nil {
		return
	}
	p := k.Fallback(e)
	s.counters.FallbacksUsed.Add(1)
	s.trace().FallbackUsed(s.phaseID, k.Name(), fmt.Sprintf("%v", e))
	s.dispatchIdempotent(IdempotentResult{Final: property.NewFinalEP(e, k, p)})
}

func (s *Store) reportViolation(err error) {
	s.pool.recordFailure(err)
}
