package pstore

import (
	"runtime"

	"github.com/opalj-go/fpcf/internal/pstore/trace"
)

// DefaultFastTrackQueueSlack is a task-deque length threshold. The
// dispatcher does not consult it: runOrSchedule inlines every Cheap
// continuation and follow-up regardless of how many compute tasks are
// pending.
const DefaultFastTrackQueueSlack = 4

// StoreConfig configures a Store. There is no ambient global state: the
// thread count and kind universe are always explicit, passed to New.
type StoreConfig struct {
	// Parallelism is the number of compute workers. Zero selects
	// max(runtime.NumCPU(), 1), matching the reference's default.
	Parallelism int

	// Debug enables the monotonicity, mutate-final and idempotent-mismatch
	// checks. Violations become ContractViolation errors; without Debug
	// these checks are skipped and nothing is logged.
	Debug bool

	// FastTrack enables the fast-track approximation path on query misses
	// for kinds that registered one.
	FastTrack bool

	// Tracer receives lifecycle events. trace.Discard if nil.
	Tracer trace.Tracer

	// ShardsPerKind controls how many shards each kind's entity map is
	// split into. Zero selects a small fixed default.
	ShardsPerKind int
}

// Option configures a StoreConfig at construction time.
type Option func(*StoreConfig)

// WithParallelism sets the number of compute workers.
func WithParallelism(n int) Option {
	return func(c *StoreConfig) { c.Parallelism = n }
}

// WithDebug toggles debug-mode invariant checking.
func WithDebug(debug bool) Option {
	return func(c *StoreConfig) { c.Debug = debug }
}

// WithFastTrack toggles the fast-track approximation path.
func WithFastTrack(enabled bool) Option {
	return func(c *StoreConfig) { c.FastTrack = enabled }
}

// WithTracer installs a tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *StoreConfig) { c.Tracer = t }
}

// WithShardsPerKind sets the shard count per kind.
func WithShardsPerKind(n int) Option {
	return func(c *StoreConfig) { c.ShardsPerKind = n }
}

func newConfig(opts ...Option) StoreConfig {
	c := StoreConfig{
		Parallelism:   max(runtime.NumCPU(), 1),
		Tracer:        trace.Discard{},
		ShardsPerKind: 8,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.Parallelism <= 0 {
		c.Parallelism = max(runtime.NumCPU(), 1)
	}
	if c.Tracer == nil {
		c.Tracer = trace.Discard{}
	}
	if c.ShardsPerKind <= 0 {
		c.ShardsPerKind = 8
	}
	return c
}
