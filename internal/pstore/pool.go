package pstore

import (
	"sync"
	"sync/atomic"

	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/taskutil"
)

// deque is a thread-safe double-ended queue supporting append (FIFO
// admission) and prepend (processed-next admission): a mutex-guarded slice
// plus a buffered signal channel, carrying an arbitrary task payload and
// admitting at either end.
type deque[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

func newDeque[T any]() *deque[T] {
	return &deque[T]{
		items:  make([]T, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

func (q *deque[T]) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Append adds to the back of the queue (processed last among current
// items). Returns false if the queue is closed.
func (q *deque[T]) Append(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	q.wake()
	return true
}

// Prepend adds to the front of the queue (processed next). Used for final
// results, so their information propagates before any pending intermediate
// update.
func (q *deque[T]) Prepend(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append([]T{v}, q.items...)
	q.wake()
	return true
}

// TryPop removes and returns the front item without blocking.
func (q *deque[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return v, true
}

// Wait returns a channel that signals when an item may be available.
func (q *deque[T]) Wait() <-chan struct{} { return q.signal }

// Len reports the current queue length.
func (q *deque[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes every waiter.
func (q *deque[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// taskKind labels a computeTask for tracing: an entity's first computation
// run, a re-run triggered by a dependee update, or a lazy computation
// triggered by Force/Get.
type taskKind int

const (
	initialComputation taskKind = iota
	onUpdateContinuation
	triggeredLazyComputation
)

// computeTask is one unit of work a compute worker runs to completion and
// then hands to the updates deque as an updateTask.
type computeTask struct {
	label taskKind
	e     any
	k     *property.Kind
	run   func() Result
}

// updateTask is one unit of work the (single) updates worker processes:
// either a computed result to dispatch, or a bookkeeping closure queued by
// submitUpdateFunc (initiateLazy has no Result; it runs directly on the
// updates worker, e.g. to schedule a lazy computation's compute task).
type updateTask struct {
	result                    Result
	k                         *property.Kind
	forceEvaluation           bool
	forceDependerNotification bool
	initiateLazy              func() // present for every closure queued by submitUpdateFunc
}

// pool owns the two deques, the open-jobs counter, and the quiescence
// latch. openJobs reaches zero iff both deques are drained and no worker
// currently holds a job; the one-shot latch fires on that transition.
type pool struct {
	tasks   *deque[computeTask]
	updates *deque[updateTask]

	openJobs atomic.Int64

	mu    sync.Mutex
	sig   taskutil.Signal
	fire  func()

	firstErr error
	errOnce  sync.Once
}

func newPool() *pool {
	p := &pool{
		tasks:   newDeque[computeTask](),
		updates: newDeque[updateTask](),
	}
	p.rearm()
	return p
}

// rearm creates a fresh quiescence signal, firing it immediately if no jobs
// are in flight at the moment it is called. Used at construction and after
// every phase-controller round, including rounds that themselves just
// submitted new work — the check against the current openJobs count, taken
// after that work was queued, is what keeps the signal from firing early.
func (p *pool) rearm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sig, p.fire = taskutil.NewSignal()
	if p.openJobs.Load() == 0 {
		p.fire()
	}
}

func (p *pool) quiescenceSignal() taskutil.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sig
}

// beginJob records one more job in flight, creating a fresh unfired signal
// if this is the transition from quiescent to busy — otherwise a caller
// that schedules work after the pool has already latched its quiescence
// signal (e.g. ScheduleEager called before the first WaitOnPhaseCompletion)
// would wait on a signal that fired before its job even started.
func (p *pool) beginJob() {
	if p.openJobs.Add(1) == 1 {
		p.mu.Lock()
		p.sig, p.fire = taskutil.NewSignal()
		p.mu.Unlock()
	}
}

// submitTask records a job and appends a compute task.
func (p *pool) submitTask(t computeTask) {
	p.beginJob()
	p.tasks.Append(t)
}

// handoffResult records the dispatch work a finished compute task (or a
// directly-produced result) hands to the updates worker. Final results are
// prepended so their information propagates ahead of any pending
// intermediate update; everything else is appended.
func (p *pool) handoffResult(u updateTask) {
	p.beginJob()
	if isFinalResult(u.result) {
		p.updates.Prepend(u)
	} else {
		p.updates.Append(u)
	}
}

// isFinalResult reports whether a Result's dispatch should be prioritized
// ahead of pending intermediate updates, so final values propagate to
// waiting dependers as early as possible.
func isFinalResult(r Result) bool {
	switch v := r.(type) {
	case FinalResult, MultiResult, ExternalResult, *csccResult:
		return true
	case IdempotentResult:
		return v.Final.IsFinal()
	case IncrementalResult:
		return isFinalResult(v.Current)
	default:
		return false
	}
}

// submitUpdateFunc schedules an arbitrary closure to run on the updates
// worker, serialized with every other table/graph mutation. Used for
// bookkeeping (Force, lazy-trigger checks, fallback injection) that must
// observe a consistent view of the table without introducing a second
// writer.
func (p *pool) submitUpdateFunc(fn func()) {
	p.beginJob()
	p.updates.Append(updateTask{initiateLazy: fn})
}

// completeJob decrements openJobs and fires the latch on the zero
// transition.
func (p *pool) completeJob() {
	if p.openJobs.Add(-1) == 0 {
		p.mu.Lock()
		p.fire()
		p.mu.Unlock()
	}
}

// recordFailure latches the first worker failure; later ones are dropped.
// The first failure also fires the quiescence latch, so the phase
// controller wakes up and returns the error without waiting for the
// remaining open jobs to drain.
func (p *pool) recordFailure(err error) {
	p.errOnce.Do(func() {
		p.firstErr = err
		p.mu.Lock()
		p.fire()
		p.mu.Unlock()
	})
}

func (p *pool) failure() error { return p.firstErr }

func (p *pool) close() {
	p.tasks.Close()
	p.updates.Close()
}
