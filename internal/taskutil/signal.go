// Package taskutil provides the worker-pool primitives the property store's
// compute and updates workers are built on: a one-shot completion Signal and
// a panic-safe goroutine launcher. Ported from the event/task package of the
// graphics-debugger example, trimmed to the two primitives the store
// actually needs and standardized on stdlib context.Context throughout.
package taskutil

import "context"

// Signal is closed exactly once to notify waiters that some condition has
// become true. Nothing is ever sent through it.
type Signal <-chan struct{}

// NewSignal returns a Signal and the func that fires it. Only the first call
// of the fire func closes the Signal; later calls do nothing. The fire func
// does no locking of its own, so concurrent callers must serialize their
// calls.
func NewSignal() (Signal, func()) {
	c := make(chan struct{})
	fired := false
	return c, func() {
		if fired {
			return
		}
		fired = true
		close(c)
	}
}

// Fired reports whether the signal has already fired, without blocking.
func (s Signal) Fired() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal fires or ctx is cancelled, returning false in
// the latter case.
func (s Signal) Wait(ctx context.Context) bool {
	select {
	case <-s:
		return true
	case <-ctx.Done():
		return false
	}
}
