package taskutil

import "fmt"

// Go runs f on a new goroutine. If f panics, the panic is recovered and
// passed to onPanic as an error instead of crashing the process — workers
// in the property store are long-lived daemons and a single computation's
// panic must not take down the pool, only fail that computation (spec:
// worker failure is recorded, not fatal to the process).
func Go(f func(), onPanic func(error)) {
	go func() {
		defer func() {
			if e := recover(); e != nil {
				onPanic(fmt.Errorf("panic in worker goroutine: %v", e))
			}
		}()
		f()
	}()
}
