package pstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalj-go/fpcf/internal/property"
)

func TestTable_PutGet(t *testing.T) {
	reg := newTestRegistry()
	k, err := reg.Register("Reach")
	require.NoError(t, err)

	tb := newTable(4)
	tb.ensureKind(k)

	_, ok := tb.get("e1", k)
	assert.False(t, ok)

	tb.put(property.NewFinalEP("e1", k, tp(3)))
	eps, ok := tb.get("e1", k)
	require.True(t, ok)
	assert.True(t, eps.IsFinal())
	assert.Equal(t, tp(3), eps.UB)
}

func TestTable_EnsureKindIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	tb := newTable(4)
	a := tb.ensureKind(k)
	b := tb.ensureKind(k)
	assert.Same(t, a, b)
}

func TestTable_Entities(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	tb := newTable(4)
	tb.ensureKind(k)
	tb.put(property.NewFinalEP("e1", k, tp(1)))
	tb.put(property.NewFinalEP("e2", k, tp(2)))
	tb.put(property.NewFinalEP("e3", k, tp(3)))

	ents := tb.entities(k)
	assert.Len(t, ents, 3)
}

func TestTable_EntitiesMatching(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	tb := newTable(4)
	tb.ensureKind(k)
	tb.put(property.NewFinalEP("e1", k, tp(1)))
	tb.put(property.NewIntermediateEP("e2", k, tp(0), tp(2)))

	nonFinal := tb.entitiesMatching(func(eps property.EPS) bool { return !eps.Final })
	require.Len(t, nonFinal, 1)
	assert.Equal(t, "e2", nonFinal[0].E)
}

func TestTable_ShardsSpreadEntities(t *testing.T) {
	reg := newTestRegistry()
	k, _ := reg.Register("Reach")

	tb := newTable(8)
	ks := tb.ensureKind(k)
	for i := 0; i < 64; i++ {
		tb.put(property.NewFinalEP(i, k, tp(i)))
	}

	occupied := 0
	for i := range ks.shards {
		if len(ks.shards[i].vals) > 0 {
			occupied++
		}
	}
	assert.Greater(t, occupied, 1, "64 entities across 8 shards should not collapse onto one shard")
}
