package pstore

import (
	"sync"

	"github.com/opalj-go/fpcf/internal/property"
)

// kindShards holds the entity->EPS map for one kind, split into a fixed
// number of shards to reduce write contention on hot kinds (e.g. ten
// thousand entities all depending on one finalizing entity). Reads take
// only the shard's read lock; writes — confined to the updates worker —
// take the shard's write lock, never the others.
type kindShards struct {
	router *shardRouter
	shards []shard
}

type shard struct {
	mu   sync.RWMutex
	vals map[any]property.EPS
}

func newKindShards(n int) *kindShards {
	ks := &kindShards{
		router: newShardRouter(n),
		shards: make([]shard, n),
	}
	for i := range ks.shards {
		ks.shards[i].vals = make(map[any]property.EPS)
	}
	return ks
}

func (ks *kindShards) shardFor(e any) *shard {
	return &ks.shards[ks.router.shardFor(e)]
}

// table is the store's entity/property table: one kindShards per
// registered kind, indexed densely by kind id. Only New and growTo mutate
// the outer slice, and both happen before any worker starts.
type table struct {
	mu          sync.Mutex // guards growth of kinds, not the per-kind maps
	kinds       []*kindShards
	shardsPerK  int
}

func newTable(shardsPerKind int) *table {
	return &table{shardsPerK: shardsPerKind}
}

// ensureKind grows the table to cover kind k's id, allocating its shard set
// if not already present. Called during phase setup, before workers start,
// and is therefore safe despite the coarse lock.
func (t *table) ensureKind(k *property.Kind) *kindShards {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.kinds) <= k.ID() {
		t.kinds = append(t.kinds, nil)
	}
	if t.kinds[k.ID()] == nil {
		t.kinds[k.ID()] = newKindShards(t.shardsPerK)
	}
	return t.kinds[k.ID()]
}

// get is wait-free for callers: it takes only a per-shard read lock.
func (t *table) get(e any, k *property.Kind) (property.EPS, bool) {
	ks := t.kinds[k.ID()]
	if ks == nil {
		return property.EPS{}, false
	}
	s := ks.shardFor(e)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[e]
	return v, ok
}

// put is called only from the updates worker.
func (t *table) put(eps property.EPS) {
	ks := t.ensureKind(eps.K)
	s := ks.shardFor(eps.E)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[eps.E] = eps
}

// entities returns a snapshot of every entity currently holding a value for
// k. The snapshot is not serialized against concurrent growth: it may miss
// entities published after the snapshot started, which callers must
// tolerate.
func (t *table) entities(k *property.Kind) []any {
	ks := t.kinds[k.ID()]
	if ks == nil {
		return nil
	}
	var out []any
	for i := range ks.shards {
		s := &ks.shards[i]
		s.mu.RLock()
		for e := range s.vals {
			out = append(out, e)
		}
		s.mu.RUnlock()
	}
	return out
}

// entitiesMatching returns every (entity, EPS) pair across all kinds for
// which pred holds.
func (t *table) entitiesMatching(pred func(property.EPS) bool) []property.EPS {
	var out []property.EPS
	t.mu.Lock()
	kinds := make([]*kindShards, len(t.kinds))
	copy(kinds, t.kinds)
	t.mu.Unlock()
	for _, ks := range kinds {
		if ks == nil {
			continue
		}
		for i := range ks.shards {
			s := &ks.shards[i]
			s.mu.RLock()
			for _, v := range s.vals {
				if pred(v) {
					out = append(out, v)
				}
			}
			s.mu.RUnlock()
		}
	}
	return out
}
