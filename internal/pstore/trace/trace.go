// Package trace defines the Store's optional tracing interface and the
// counters every Store maintains regardless of whether a Tracer is
// installed.
package trace

import "sync/atomic"

// Tracer receives every state transition the store makes. Implementations
// supplied by clients must be pure and safe to call from any goroutine,
// matching the concurrency rules of fallback/resolver/computation callbacks.
// Every method's phase argument is the id generated by the SetupPhase call
// the event belongs to, letting a client correlate events across phases.
type Tracer interface {
	TaskScheduled(phase, kind, entity string)
	UpdateHandled(phase, kind, entity, variant string)
	DependerNotified(phase, depender, dependee string)
	CycleResolved(phase string, members []string)
	FallbackUsed(phase, kind, entity string)
	QuiescenceReached(phase string, round int)
}

// Discard is a Tracer that does nothing. It is the default when no tracer
// is configured.
type Discard struct{}

func (Discard) TaskScheduled(phase, kind, entity string)          {}
func (Discard) UpdateHandled(phase, kind, entity, variant string) {}
func (Discard) DependerNotified(phase, depender, dependee string) {}
func (Discard) CycleResolved(phase string, members []string)      {}
func (Discard) FallbackUsed(phase, kind, entity string)            {}
func (Discard) QuiescenceReached(phase string, round int)          {}

// Counters holds the atomic statistics every Store maintains, independent
// of any installed Tracer.
type Counters struct {
	TasksScheduled    atomic.Int64
	FastTrackHits      atomic.Int64
	RedundantIdempotent atomic.Int64
	UselessPartial      atomic.Int64
	FallbacksUsed       atomic.Int64
	ScheduledLazy       atomic.Int64
	QuiescenceCount     atomic.Int64
	ResolvedSCCs        atomic.Int64
}

// Snapshot is a point-in-time copy of Counters suitable for logging or
// assertions, since the atomic fields themselves cannot be compared
// directly by value.
type Snapshot struct {
	TasksScheduled      int64
	FastTrackHits       int64
	RedundantIdempotent int64
	UselessPartial      int64
	FallbacksUsed       int64
	ScheduledLazy       int64
	QuiescenceCount     int64
	ResolvedSCCs        int64
}

// Snapshot reads every counter. Individual reads are linearizable but the
// group of them is not a single atomic transaction; this is fine for
// statistics and tests, never used for correctness decisions.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		TasksScheduled:      c.TasksScheduled.Load(),
		FastTrackHits:       c.FastTrackHits.Load(),
		RedundantIdempotent: c.RedundantIdempotent.Load(),
		UselessPartial:      c.UselessPartial.Load(),
		FallbacksUsed:       c.FallbacksUsed.Load(),
		ScheduledLazy:       c.ScheduledLazy.Load(),
		QuiescenceCount:     c.QuiescenceCount.Load(),
		ResolvedSCCs:        c.ResolvedSCCs.Load(),
	}
}
