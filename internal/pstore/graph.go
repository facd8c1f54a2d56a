package pstore

import "github.com/opalj-go/fpcf/internal/property"

// depKey identifies an (entity, kind) pair as a node in the dependency
// graph. Both dependees and dependers are keyed this way.
type depKey struct {
	KindID int
	E      any
}

func keyOf(e any, k *property.Kind) depKey { return depKey{KindID: k.ID(), E: e} }

// continuationEntry is what the depender side of an edge carries: the
// continuation to re-invoke when a dependee changes, the scheduling hint,
// a snapshot of the dependee EOptionPs the continuation last saw (in
// order, so Continuation gets them back in the shape it returned them),
// and whether a depender-notification was forced across a re-run.
type continuationEntry struct {
	cont               Continuation
	hint               Hint
	seen               []property.EOptionP
	forceNotification  bool
}

// dependencyGraph is the single-writer depender/dependee bookkeeping: two
// mirrored maps confined to the updates worker, so no synchronization
// beyond single-writer discipline is needed — every depender->dependee edge
// has a reciprocal dependee->depender edge.
type dependencyGraph struct {
	// dependees[depender] = set of dependee keys it currently depends on.
	dependees map[depKey]map[depKey]bool
	// dependers[dependee] = set of depender keys that depend on it.
	dependers map[depKey]map[depKey]bool
	// continuations[depender] = how to re-invoke it; at most one entry for
	// a non-final depender at any time.
	continuations map[depKey]*continuationEntry
}

func newDependencyGraph() *dependencyGraph {
	return &dependencyGraph{
		dependees:     make(map[depKey]map[depKey]bool),
		dependers:     make(map[depKey]map[depKey]bool),
		continuations: make(map[depKey]*continuationEntry),
	}
}

// clearDependerEdges removes depender's outgoing edges and its reciprocal
// entries on every dependee side, and drops its continuation entry. Called
// before registering a fresh dependency set, and on finalization.
func (g *dependencyGraph) clearDependerEdges(depender depKey) {
	for dependee := range g.dependees[depender] {
		if set := g.dependers[dependee]; set != nil {
			delete(set, depender)
			if len(set) == 0 {
				delete(g.dependers, dependee)
			}
		}
	}
	delete(g.dependees, depender)
	delete(g.continuations, depender)
}

// setDependerEdges registers depender's new dependency set and
// continuation, replacing anything previously registered.
func (g *dependencyGraph) setDependerEdges(depender depKey, dependees []depKey, entry *continuationEntry) {
	g.clearDependerEdges(depender)

	set := make(map[depKey]bool, len(dependees))
	for _, dk := range dependees {
		set[dk] = true
		if g.dependers[dk] == nil {
			g.dependers[dk] = make(map[depKey]bool)
		}
		g.dependers[dk][depender] = true
	}
	if len(set) > 0 {
		g.dependees[depender] = set
	}
	g.continuations[depender] = entry
}

// dependersOf returns a snapshot of the depender keys currently depending
// on dependee.
func (g *dependencyGraph) dependersOf(dependee depKey) []depKey {
	set := g.dependers[dependee]
	if len(set) == 0 {
		return nil
	}
	out := make([]depKey, 0, len(set))
	for dk := range set {
		out = append(out, dk)
	}
	return out
}

// hasDependees reports whether depender currently has any registered
// dependency (used by fallback injection: "depender with no value" and by
// the finalize-collaborative-orphans round: "no remaining dependees").
func (g *dependencyGraph) hasDependees(depender depKey) bool {
	return len(g.dependees[depender]) > 0
}

// clearInternalLinks removes every edge strictly between members of the
// given set, without touching edges that cross the boundary — used by
// closed-SCC resolution to stop inner notifications from firing while
// still letting outside dependers be notified once members finalize.
func (g *dependencyGraph) clearInternalLinks(members map[depKey]bool) {
	for m := range members {
		for dependee := range g.dependees[m] {
			if members[dependee] {
				if set := g.dependers[dependee]; set != nil {
					delete(set, m)
					if len(set) == 0 {
						delete(g.dependers, dependee)
					}
				}
				delete(g.dependees[m], dependee)
			}
		}
		if len(g.dependees[m]) == 0 {
			delete(g.dependees, m)
		}
	}
}

// snapshotEdges returns a copy of the depender->dependees adjacency,
// restricted to dependers/dependees whose kind is not delayed. Used by
// the phase controller's closed-SCC search, which must run over a
// consistent view while it explores (the graph itself is not locked since
// the search runs on the updates worker, the only writer).
func (g *dependencyGraph) snapshotEdges(delayed map[int]bool) map[depKey][]depKey {
	out := make(map[depKey][]depKey, len(g.dependees))
	for depender, set := range g.dependees {
		if delayed[depender.KindID] {
			continue
		}
		edges := make([]depKey, 0, len(set))
		for dk := range set {
			if delayed[dk.KindID] {
				continue
			}
			edges = append(edges, dk)
		}
		out[depender] = edges
	}
	return out
}
