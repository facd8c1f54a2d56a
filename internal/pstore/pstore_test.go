package pstore

import "github.com/opalj-go/fpcf/internal/property"

// testProp is a minimal int-valued lattice used across this package's
// tests: larger is "more refined", mirroring an upward-refining analysis
// such as a call graph's reachable-method count.
type testProp struct {
	property.Base
	v int
}

func tp(v int) property.Property { return testProp{v: v} }

func meetMax(a, b property.Property) property.Property {
	av, bv := a.(testProp), b.(testProp)
	if av.v > bv.v {
		return av
	}
	return bv
}

func checkEqualOrBetter(old, new property.Property) bool {
	if old == nil {
		return true
	}
	return new.(testProp).v >= old.(testProp).v
}

func newTestRegistry() *property.Registry { return property.NewRegistry() }
