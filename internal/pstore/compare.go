package pstore

import "github.com/opalj-go/fpcf/internal/property"

// propertiesEqual compares two client-supplied Property values with ==,
// recovering from the panic Go raises when an interface's dynamic type
// turns out to be uncomparable (e.g. a property backed by a slice or map).
// In that case we conservatively report "not equal" — treating every
// observation as a change is always safe, only ever causing an extra,
// harmless depender notification.
func propertiesEqual(a, b property.Property) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// currentEOptionP reads prev's (entity, kind) from the table right now,
// returning EPK if nothing is published yet.
func (s *Store) currentEOptionP(prev property.EOptionP) property.EOptionP {
	e, k := prev.Entity(), prev.Kind()
	if eps, ok := s.table.get(e, k); ok {
		return eps
	}
	return property.EPK{E: e, K: k}
}

// eOptionPChanged reports whether cur has been refined relative to what a
// continuation previously saw (old).
func eOptionPChanged(old, cur property.EOptionP) bool {
	oldEPS, oldIsEPS := old.(property.EPS)
	curEPS, curIsEPS := cur.(property.EPS)
	if !oldIsEPS && !curIsEPS {
		return false
	}
	if oldIsEPS != curIsEPS {
		return true
	}
	if oldEPS.Final != curEPS.Final {
		return true
	}
	return !propertiesEqual(oldEPS.LB, curEPS.LB) || !propertiesEqual(oldEPS.UB, curEPS.UB)
}
