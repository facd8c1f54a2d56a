package harness

// TraceEvent is one state transition recorded by the harness's tracer
// while a scenario's phase runs, mirroring trace.Tracer's callback shape.
type TraceEvent struct {
	Variant string `json:"variant"`
	Kind    string `json:"kind,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Result is the outcome of running a Scenario.
type Result struct {
	// Pass is true iff every Assertion evaluated without error.
	Pass bool `json:"pass"`

	// Trace holds every tracer callback observed during the phase, in the
	// order the tracer received them.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed Assertion. Empty iff Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult returns a passing, empty Result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failed assertion and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
