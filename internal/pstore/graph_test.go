package pstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalj-go/fpcf/internal/property"
)

func TestGraph_SetAndClearDependerEdges(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	g := newDependencyGraph()
	depender := keyOf("caller", k)
	dependee := keyOf("callee", k)

	entry := &continuationEntry{seen: []property.EOptionP{property.EPK{E: "callee", K: k}}}
	g.setDependerEdges(depender, []depKey{dependee}, entry)

	assert.True(t, g.hasDependees(depender))
	assert.ElementsMatch(t, []depKey{depender}, g.dependersOf(dependee))

	g.clearDependerEdges(depender)
	assert.False(t, g.hasDependees(depender))
	assert.Empty(t, g.dependersOf(dependee))
	assert.Nil(t, g.continuations[depender])
}

func TestGraph_SetDependerEdgesReplacesPrevious(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	g := newDependencyGraph()
	depender := keyOf("caller", k)
	oldDependee := keyOf("old-callee", k)
	newDependee := keyOf("new-callee", k)

	g.setDependerEdges(depender, []depKey{oldDependee}, &continuationEntry{})
	g.setDependerEdges(depender, []depKey{newDependee}, &continuationEntry{})

	assert.Empty(t, g.dependersOf(oldDependee))
	require.ElementsMatch(t, []depKey{depender}, g.dependersOf(newDependee))
}

func TestGraph_ClearInternalLinksPreservesExternalEdges(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	g := newDependencyGraph()
	a := keyOf("a", k)
	b := keyOf("b", k)
	outside := keyOf("outside", k)

	// a -> b, b -> a (a two-node cycle), a -> outside (a live external edge).
	g.setDependerEdges(a, []depKey{b, outside}, &continuationEntry{})
	g.setDependerEdges(b, []depKey{a}, &continuationEntry{})

	g.clearInternalLinks(map[depKey]bool{a: true, b: true})

	assert.False(t, g.dependees[a][b])
	assert.False(t, g.dependees[b][a])
	assert.True(t, g.dependees[a][outside], "external edge must survive clearInternalLinks")
}

func TestGraph_SnapshotEdgesExcludesDelayedKinds(t *testing.T) {
	reg := newTestRegistry()
	live, _ := reg.Register("Live")
	delayed, _ := reg.Register("Delayed")

	g := newDependencyGraph()
	a := keyOf("a", live)
	d := keyOf("a", delayed)
	b := keyOf("b", live)

	g.setDependerEdges(a, []depKey{b, d}, &continuationEntry{})
	g.setDependerEdges(d, []depKey{b}, &continuationEntry{})

	edges := g.snapshotEdges(map[int]bool{delayed.ID(): true})
	assert.ElementsMatch(t, []depKey{b}, edges[a])
	_, present := edges[d]
	assert.False(t, present, "a delayed depender must not appear in the snapshot")
}
