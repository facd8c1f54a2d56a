package property

import "testing"

type intProp struct {
	Base
	v int
}

func TestRegistryDenseIDs(t *testing.T) {
	r := NewRegistry()
	a, err := r.Register("reachability")
	if err != nil {
		t.Fatalf("register a: %v", err)
	}
	b, err := r.Register("escape")
	if err != nil {
		t.Fatalf("register b: %v", err)
	}
	if a.ID() != 0 || b.ID() != 1 {
		t.Fatalf("expected dense ids 0,1 got %d,%d", a.ID(), b.ID())
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 kinds, got %d", r.Len())
	}
	if _, err := r.Register("reachability"); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestEPKIsNeverFinal(t *testing.T) {
	k := &Kind{}
	epk := EPK{E: "e1", K: k}
	if epk.IsFinal() {
		t.Fatalf("EPK must never be final")
	}
}

func TestFinalEP(t *testing.T) {
	k := &Kind{}
	p := intProp{v: 42}
	eps := NewFinalEP("e1", k, p)
	if !eps.IsFinal() {
		t.Fatalf("expected final")
	}
	if eps.LB != eps.UB {
		t.Fatalf("final EP must have lb == ub")
	}
}
