// Package pstore implements the property store: a concurrent, fixed-point
// engine that schedules interdependent property computations over a
// universe of entities, tracks their dependee/depender relations, drives
// them to quiescence, fills in fallback values, and resolves cyclic
// dependencies among still-refinable properties.
//
// One goroutine (the updates worker) owns every mutation of
// the entity/property table and the dependency graph; N compute workers run
// property computations and hand their results to that single writer
// through a deque. Nothing outside the updates worker ever takes a lock on
// the dependency graph.
package pstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/pstore/trace"
	"github.com/opalj-go/fpcf/internal/taskutil"
)

// Store is the property store. Construct with New, register lazy/eager
// computations, call SetupPhase, schedule initial work, then
// WaitOnPhaseCompletion.
type Store struct {
	cfg      StoreConfig
	registry *property.Registry
	table    *table
	graph    *dependencyGraph
	pool     *pool
	counters trace.Counters

	// lazy[kindID] is the registered lazy computation for that kind, if any.
	lazy map[int]Computation
	// fastTrack[kindID] is the optional fast-track approximator.
	fastTrack map[int]Computation

	// alreadyTriggered[depKey] guards at-most-once lazy triggering per
	// (entity, kind) — updates-worker-owned.
	alreadyTriggered map[depKey]bool
	// forced[depKey] marks pairs set by Force: every forced pair that still
	// has no value gets a fallback before the phase is allowed to reach
	// quiescence.
	forced map[depKey]bool

	computedKinds map[int]bool
	delayedKinds  map[int]bool
	phaseStarted  bool
	// phaseID correlates every tracer event emitted during one
	// SetupPhase/WaitOnPhaseCompletion cycle; regenerated by each SetupPhase
	// call.
	phaseID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex // guards phaseStarted / registration-time-only fields
}

// New constructs a Store over registry with the given options. No workers
// run until SetupPhase starts a phase.
func New(registry *property.Registry, opts ...Option) *Store {
	cfg := newConfig(opts...)
	return &Store{
		cfg:              cfg,
		registry:         registry,
		table:            newTable(cfg.ShardsPerKind),
		graph:            newDependencyGraph(),
		pool:             newPool(),
		lazy:             make(map[int]Computation),
		fastTrack:        make(map[int]Computation),
		alreadyTriggered: make(map[depKey]bool),
		forced:           make(map[depKey]bool),
		computedKinds:    make(map[int]bool),
		delayedKinds:     make(map[int]bool),
	}
}

// Counters exposes the store's atomic lifecycle statistics.
func (s *Store) Counters() trace.Snapshot { return s.counters.Snapshot() }

// Debug reports whether the store runs with invariant checking enabled.
func (s *Store) Debug() bool { return s.cfg.Debug }

func (s *Store) trace() trace.Tracer { return s.cfg.Tracer }

func (s *Store) kindByID(id int) *property.Kind {
	for _, k := range s.registry.All() {
		if k.ID() == id {
			return k
		}
	}
	return nil
}

// phaseID correlates tracer output across one SetupPhase/WaitOnPhaseCompletion
// call.
func newPhaseID() string { return uuid.NewString() }

// Shutdown cancels the phase's root context and drains both deques,
// waking every blocked worker. Safe to call more than once.
func (s *Store) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.pool.close()
}

func (s *Store) startWorkers(ctx context.Context) {
	for i := 0; i < s.cfg.Parallelism; i++ {
		s.wg.Add(1)
		taskutil.Go(func() { s.runComputeWorker(ctx) }, s.pool.recordFailure)
	}
	s.wg.Add(1)
	taskutil.Go(func() { s.runUpdatesWorker(ctx) }, s.pool.recordFailure)
}

// runComputeWorker services the task deque until the context is cancelled;
// queued tasks are still popped and run before it checks the context.
func (s *Store) runComputeWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		t, ok := s.pool.tasks.TryPop()
		if ok {
			s.counters.TasksScheduled.Add(1)
			s.trace().TaskScheduled(s.phaseID, traceName(t.k), fmt.Sprintf("%v", t.e))
			result := t.run()
			s.pool.handoffResult(updateTask{result: result, k: t.k})
			s.pool.completeJob() // the compute task itself is done
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.pool.tasks.Wait():
			if s.pool.tasks.Len() == 0 {
				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}

// runUpdatesWorker is the single writer: it is the only goroutine that ever
// mutates the table or the dependency graph.
func (s *Store) runUpdatesWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		u, ok := s.pool.updates.TryPop()
		if ok {
			s.dispatch(u)
			s.pool.completeJob()
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.pool.updates.Wait():
		}
	}
}

func traceName(k *property.Kind) string {
	if k == nil {
		return "?"
	}
	return k.Name()
}
