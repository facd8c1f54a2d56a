package pstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/opalj-go/fpcf/internal/property"
)

// runQuiescenceLoop is the phase controller. It alternates
// between waiting for the worker pool to drain and running one of three
// quiescence rounds — fallback injection, closed-cycle resolution,
// finalize-collaborative-orphans — in that priority order, re-arming the
// pool's latch and looping again whenever a round makes progress. It
// returns once a full wait-drain cycle produces no progress in any round.
//
// Called only from the goroutine that invoked WaitOnPhaseCompletion; safe
// to read and mutate the table and graph directly here because the updates
// worker is, by construction, idle (blocked on its deque's signal) for the
// entire span between the pool reaching zero open jobs and this function's
// next rearm.
func (s *Store) runQuiescenceLoop() error {
	ctx := context.Background()
	for {
		if !s.pool.quiescenceSignal().Wait(ctx) {
			return ctx.Err()
		}
		if err := s.pool.failure(); err != nil {
			return err
		}

		if s.injectFallbacksRound() {
			s.pool.rearm()
			continue
		}
		if s.resolveCyclesRound() {
			s.pool.rearm()
			continue
		}
		if s.finalizeOrphansRound() {
			s.pool.rearm()
			continue
		}

		round := int(s.counters.QuiescenceCount.Add(1))
		s.trace().QuiescenceReached(s.phaseID, round)
		return s.pool.failure()
	}
}

// injectFallbacksRound gives a fallback value to every (entity, kind) pair
// that some depender is waiting on, or that was explicitly forced, and that
// still has no value, for every kind not marked delayed this phase (a
// delayed kind is never given a fallback here — it waits for a later
// phase). Reports whether it did anything.
func (s *Store) injectFallbacksRound() bool {
	progressed := false
	seen := make(map[depKey]bool)

	note := func(dk depKey) {
		if seen[dk] || s.delayedKinds[dk.KindID] {
			return
		}
		seen[dk] = true
		k := s.kindByID(dk.KindID)
		if k == nil {
			return
		}
		if _, ok := s.table.get(dk.E, k); ok {
			return
		}
		s.injectFallback(dk.E, k)
		progressed = true
	}

	for dependee := range s.graph.dependers {
		note(dependee)
	}
	for forced := range s.forced {
		note(forced)
	}
	return progressed
}

// resolveCyclesRound searches for closed strongly connected components
// among entities with an intermediate (non-final) value and resolves each
// one found via its kind's ResolveCycle. An SCC is closed when none of its
// members has a live dependency on anything outside the component — any
// such outside dependee, if still non-final, might yet refine and break
// the stalemate, so the component is left alone until that settles.
func (s *Store) resolveCyclesRound() bool {
	edges := s.graph.snapshotEdges(s.delayedKinds)
	sccs := tarjanSCCs(edges)

	progressed := false
	for _, members := range sccs {
		if len(members) == 1 && !selfLoop(members[0], edges) {
			continue // a lone node with no self-loop is not a cycle.
		}
		if !s.sccIsClosed(members) {
			continue
		}
		s.dispatchCSCC(&csccResult{members: s.eoptionsOf(members)})
		progressed = true
	}
	return progressed
}

func selfLoop(dk depKey, edges map[depKey][]depKey) bool {
	for _, d := range edges[dk] {
		if d == dk {
			return true
		}
	}
	return false
}

// sccIsClosed reports whether every dependee of every member is itself a
// member or already final.
func (s *Store) sccIsClosed(members []depKey) bool {
	set := make(map[depKey]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	for _, m := range members {
		for dependee := range s.graph.dependees[m] {
			if set[dependee] {
				continue
			}
			k := s.kindByID(dependee.KindID)
			if k == nil {
				continue
			}
			if eps, ok := s.table.get(dependee.E, k); ok && eps.IsFinal() {
				continue
			}
			return false
		}
	}
	return true
}

func (s *Store) eoptionsOf(members []depKey) []property.EOptionP {
	out := make([]property.EOptionP, 0, len(members))
	for _, m := range members {
		k := s.kindByID(m.KindID)
		out = append(out, s.currentEOptionP(property.EPK{E: m.E, K: k}))
	}
	return out
}

// finalizeOrphansRound finalizes every collaboratively-computed
// (PartialResult-driven) value that has no remaining live dependees and no
// scheduled computation left to refine it further: its current bound
// becomes its final value, since nothing will ever touch it again.
func (s *Store) finalizeOrphansRound() bool {
	progressed := false
	orphans := s.table.entitiesMatching(func(eps property.EPS) bool {
		if eps.Final {
			return false
		}
		return !s.graph.hasDependees(keyOf(eps.E, eps.K))
	})
	for _, eps := range orphans {
		key := keyOf(eps.E, eps.K)
		if _, hasContinuation := s.graph.continuations[key]; hasContinuation {
			continue // still registered to be re-run; not actually orphaned.
		}
		s.dispatchResult(FinalResult{E: eps.E, K: eps.K, P: eps.UB}, false)
		progressed = true
	}
	return progressed
}

// tarjanSCCs computes the strongly connected components of the graph
// described by edges (depender -> its dependees), grounded on the classic
// one-pass index/lowlink/onStack algorithm. Components are returned in no
// particular order; each is a snapshot slice of member keys.
func tarjanSCCs(edges map[depKey][]depKey) [][]depKey {
	var (
		index   = make(map[depKey]int)
		lowlink = make(map[depKey]int)
		onStack = make(map[depKey]bool)
		stack   []depKey
		counter int
		result  [][]depKey
	)

	nodes := make([]depKey, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodeLess(nodes[i], nodes[j]) })

	var strongconnect func(v depKey)
	strongconnect = func(v depKey) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, ok := index[w]; !ok {
				if _, known := edges[w]; !known {
					edges[w] = nil // treat as a leaf with no outgoing edges
				}
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []depKey
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			result = append(result, comp)
		}
	}

	for _, v := range nodes {
		if _, ok := index[v]; !ok {
			strongconnect(v)
		}
	}
	return result
}

// nodeLess gives tarjanSCCs a deterministic traversal order — the search
// order never changes which SCCs exist, but a fixed order keeps which
// member strongconnect visits first (and thus the order in which members
// are resolved and traced) reproducible across runs.
func nodeLess(a, b depKey) bool {
	if a.KindID != b.KindID {
		return a.KindID < b.KindID
	}
	return fmt.Sprintf("%v", a.E) < fmt.Sprintf("%v", b.E)
}
