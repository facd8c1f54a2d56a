package pstore

import (
	"fmt"

	"github.com/pkg/errors"
)

// ViolationKind distinguishes the fatal contract violations a Store can
// detect. IllegalRefinement, MutateFinal and IdempotentMismatch are only
// checked in debug mode; the others are raised in every mode.
type ViolationKind int

const (
	// IllegalRefinement means an update moved (lb, ub) outside the kind's
	// monotone refinement order relative to the previous bounds.
	IllegalRefinement ViolationKind = iota + 1
	// MutateFinal means a result arrived for an (entity, kind) pair that
	// was already final.
	MutateFinal
	// SetWithLazyRegistered means Set was called for a kind that has a
	// registered lazy computation.
	SetWithLazyRegistered
	// LateLazyRegistration means RegisterLazy was called after a phase had
	// already started.
	LateLazyRegistration
	// SetOnExisting means Set was called for an entity that already has a
	// value for the kind (see DESIGN.md Open Question 3).
	SetOnExisting
	// IdempotentMismatch means an IdempotentResult observed an existing
	// value unequal to the one it carries (see DESIGN.md Open Question 1).
	IdempotentMismatch
)

func (k ViolationKind) String() string {
	switch k {
	case IllegalRefinement:
		return "IllegalRefinement"
	case MutateFinal:
		return "MutateFinal"
	case SetWithLazyRegistered:
		return "SetWithLazyRegistered"
	case LateLazyRegistration:
		return "LateLazyRegistration"
	case SetOnExisting:
		return "SetOnExisting"
	case IdempotentMismatch:
		return "IdempotentMismatch"
	default:
		return "Unknown"
	}
}

// ContractViolation is a fatal error: the caller or a computation broke one
// of the store's invariants. A violation raised on the updates worker ends
// the phase: WaitOnPhaseCompletion returns it and stops the workers. The
// table and dependency graph are not cleared. Violations returned directly
// by RegisterLazy or Set do not affect a running phase.
type ContractViolation struct {
	Kind   ViolationKind
	Entity any
	Detail string
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("pstore: contract violation %s: entity=%v: %s", v.Kind, v.Entity, v.Detail)
}

// newViolation builds a ContractViolation wrapped with a stack trace at the
// point of detection, via pkg/errors.
func newViolation(kind ViolationKind, entity any, detail string) error {
	return errors.WithStack(&ContractViolation{Kind: kind, Entity: entity, Detail: detail})
}

// AsContractViolation unwraps err to a *ContractViolation, if it is one.
func AsContractViolation(err error) (*ContractViolation, bool) {
	var v *ContractViolation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
