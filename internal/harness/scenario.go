package harness

import (
	"github.com/opalj-go/fpcf/internal/property"
	"github.com/opalj-go/fpcf/internal/pstore"
)

// Scenario describes one end-to-end property store run: a registry plus
// Store options, a Build step that registers computations and schedules
// initial work on a freshly constructed Store, and the Assertions to
// evaluate once the resulting phase reaches quiescence (or fails).
//
// Build returns the computed and delayed kind sets Run passes to
// SetupPhase; most scenarios only need computed.
type Scenario struct {
	Name        string
	Description string

	Registry *property.Registry
	Options  []pstore.Option

	Build func(s *pstore.Store) (computed, delayed []*property.Kind)

	Assertions []Assertion
}
