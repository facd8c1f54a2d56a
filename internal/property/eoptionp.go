package property

// EOptionP is the entity/optional-property carrier the store returns from
// queries: either EPK (no value yet) or EPS (current bounds, possibly
// final). Sealed the same way Property is.
type EOptionP interface {
	eOptionP()
	Entity() any
	Kind() *Kind
}

// EPK represents a known entity with no value yet computed for kind.
type EPK struct {
	E any
	K *Kind
}

func (EPK) eOptionP()      {}
func (o EPK) Entity() any  { return o.E }
func (o EPK) Kind() *Kind  { return o.K }

// IsFinal always reports false for EPK: there is no value at all yet.
func (EPK) IsFinal() bool { return false }

// EPS represents the current lower/upper bounds the store holds for
// (entity, kind). When LB and UB are equal (per the kind's
// CheckIsEqualOrBetter-free identity, i.e. the client's own value equality)
// the store marks it final via the Final field rather than re-deriving
// equality, since Property has no generic equality operation.
type EPS struct {
	E     any
	K     *Kind
	LB    Property
	UB    Property
	Final bool
}

func (EPS) eOptionP()     {}
func (o EPS) Entity() any { return o.E }
func (o EPS) Kind() *Kind { return o.K }

// IsFinal reports whether this is a FinalEP (lb == ub).
func (o EPS) IsFinal() bool { return o.Final }

// NewFinalEP builds an EPS with LB == UB == p, marked final.
func NewFinalEP(e any, k *Kind, p Property) EPS {
	return EPS{E: e, K: k, LB: p, UB: p, Final: true}
}

// NewIntermediateEP builds a non-final EPS with the given bounds.
func NewIntermediateEP(e any, k *Kind, lb, ub Property) EPS {
	return EPS{E: e, K: k, LB: lb, UB: ub, Final: false}
}
