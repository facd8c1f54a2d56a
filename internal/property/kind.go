// Package property defines the lattice primitives the store schedules over:
// property kinds, refinable property values, and the entity/optional-property
// carrier type the store hands back from queries.
package property

import "fmt"

// Entity is an opaque identity token a property is attached to. Equality is
// by identity (==), matching the comparable constraint below.
type Entity interface {
	comparable
}

// Property is a value attached to an entity under a given kind. Concrete
// analyses define their own implementations; the store never inspects a
// Property's structure, only calls back into its Kind's Meet and
// CheckIsEqualOrBetter.
type Property interface {
	// property is unexported so only this module's own types, and types in
	// packages that embed them, can implement Property. Analyses embed
	// a concrete struct and never need to implement this method directly;
	// see Base for the common embedding pattern.
	property()
}

// Base is embedded by concrete property types to satisfy Property without
// repeating the marker method everywhere.
type Base struct{}

func (Base) property() {}

// Kind is a compile-time-registered property kind. Its ID is dense and
// assigned by Register, suitable for indexing into per-kind arrays.
type Kind struct {
	id   int
	name string

	// Fallback is invoked when no analysis computes this kind for an
	// entity by the time quiescence is reached. It must return a final
	// property.
	Fallback func(e any) Property

	// ResolveCycle is invoked to finalize a member of a closed strongly
	// connected component of mutually-dependent refinable values. It
	// receives the current (non-final) bounds observed for every member of
	// the SCC, keyed by entity, and must return a final property for e.
	ResolveCycle func(e any, members map[any]Property) Property

	// Meet returns the least upper refinement of two values of this kind.
	// Used by collaborative PartialResult updates.
	Meet func(a, b Property) Property

	// CheckIsEqualOrBetter reports whether new is a legal refinement of
	// old (new is above old in the lattice, i.e. old <= new). Only
	// consulted when the owning Store runs in debug mode.
	CheckIsEqualOrBetter func(old, new Property) bool

	// Delayed is a client-side marker. The store does not read it: the
	// kinds excluded from fallback injection and closed-SCC search are the
	// delayed kinds passed to pstore.Store.SetupPhase.
	Delayed bool
}

// ID returns the kind's dense integer id.
func (k *Kind) ID() int { return k.id }

// Name returns the kind's tracing name.
func (k *Kind) Name() string { return k.name }

func (k *Kind) String() string {
	return fmt.Sprintf("Kind(%d:%s)", k.id, k.name)
}
