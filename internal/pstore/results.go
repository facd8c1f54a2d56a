package pstore

import "github.com/opalj-go/fpcf/internal/property"

// Hint steers whether the dispatcher inlines a follow-up continuation in
// the current dispatch loop (Cheap) or schedules it as a task on the
// compute deque (Expensive). Load-bearing for performance only, never for
// correctness.
type Hint int

const (
	Cheap Hint = iota
	Expensive
)

// Computation is a property computation function: given an entity, produces
// a Result. Called synchronously on a compute worker.
type Computation func(e any) Result

// Continuation is re-invoked when a previously seen dependee changes. It
// receives the current EOptionP for every dependee the original
// IntermediateResult named, in the same order, and must produce a fresh
// Result reflecting that update.
type Continuation func(seen []property.EOptionP) Result

// PartialFunc is the collaborative-update function carried by
// PartialResult: given the current value (nil if none), it returns the new
// value to meet in, or nil to contribute nothing.
type PartialFunc func(current property.Property) property.Property

// Result is the sealed result-variant type the dispatcher switches on. Every
// PropertyComputationResult a client computation returns is one of the
// concrete types below.
type Result interface {
	result()
}

type resultBase struct{}

func (resultBase) result() {}

// NoResult means the computation had nothing to store.
type NoResult struct{ resultBase }

// FinalResult publishes a single final value for (E, K).
type FinalResult struct {
	resultBase
	E any
	K *property.Kind
	P property.Property
}

// MultiResult publishes several final values in one dispatch.
type MultiResult struct {
	resultBase
	Results []FinalResult
}

// PartialResult is a collaborative update: read the current value, apply F,
// and if it returns non-nil treat that as a potential update via the
// kind's Meet.
type PartialResult struct {
	resultBase
	E any
	K *property.Kind
	F PartialFunc
}

// IncrementalResult bundles a current result with additional follow-up
// (computation, entity) work to schedule alongside it.
type IncrementalResult struct {
	resultBase
	Current   Result
	FollowUps []FollowUp
	Hint      Hint
}

// FollowUp is one entry of an IncrementalResult's additional work.
type FollowUp struct {
	E any
	K *property.Kind
	C Computation
}

// Results is a batch of results dispatched one at a time, in order.
type Results struct {
	resultBase
	List []Result
}

// IntermediateResult is a refinable update that names the dependees the
// computation consulted to produce lb/ub.
type IntermediateResult struct {
	resultBase
	E                        any
	K                        *property.Kind
	LB, UB                   property.Property
	SeenDependees            []property.EOptionP
	Cont                     Continuation
	Hint                     Hint
	ForceDependerNotification bool
}

// IdempotentResult publishes FinalEP only if the entity currently has no
// value; otherwise it is dropped (or flagged, per DESIGN.md Open Question 1
// in debug mode).
type IdempotentResult struct {
	resultBase
	Final property.EPS
}

// ExternalResult updates the table directly for an externally supplied
// final value; the caller asserts it has no dependencies.
type ExternalResult struct {
	resultBase
	E any
	K *property.Kind
	P property.Property
}

// csccResult is produced internally by the phase controller when resolving
// a closed strongly connected component; it is dispatched through the same
// funnel as client results so table/graph mutation stays single-writer.
type csccResult struct {
	resultBase
	members []property.EOptionP
	kind    *property.Kind
}
