package pstore

import (
	"fmt"
	"hash/fnv"

	"github.com/dgryski/go-rendezvous"
)

// shardKeys are the static rendezvous-hashing node names for a kind's
// shards. They never change after a Store is constructed, so the HRW
// hasher is built once per kind and reused for every lookup.
func shardKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("shard-%d", i)
	}
	return keys
}

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// shardRouter picks a shard index for an entity using highest-random-weight
// (rendezvous) hashing over a fixed set of shard names. HRW is overkill for
// a static shard count (entity-hash % n would do), but it keeps the door
// open to resharding a hot kind without reshuffling every entity.
type shardRouter struct {
	hasher *rendezvous.Rendezvous
	index  map[string]int
}

func newShardRouter(n int) *shardRouter {
	keys := shardKeys(n)
	idx := make(map[string]int, n)
	for i, k := range keys {
		idx[k] = i
	}
	return &shardRouter{
		hasher: rendezvous.New(keys, fnvHash),
		index:  idx,
	}
}

func (r *shardRouter) shardFor(e any) int {
	key := fmt.Sprintf("%v", e)
	node := r.hasher.Lookup(key)
	return r.index[node]
}
