package trace

// Multi fans a single Tracer call out to every tracer in the slice, in
// order, mirroring the broadcast-logger idiom of forking one event stream
// to several sinks.
type Multi []Tracer

func (m Multi) TaskScheduled(phase, kind, entity string) {
	for _, t := range m {
		t.TaskScheduled(phase, kind, entity)
	}
}

func (m Multi) UpdateHandled(phase, kind, entity, variant string) {
	for _, t := range m {
		t.UpdateHandled(phase, kind, entity, variant)
	}
}

func (m Multi) DependerNotified(phase, depender, dependee string) {
	for _, t := range m {
		t.DependerNotified(phase, depender, dependee)
	}
}

func (m Multi) CycleResolved(phase string, members []string) {
	for _, t := range m {
		t.CycleResolved(phase, members)
	}
}

func (m Multi) FallbackUsed(phase, kind, entity string) {
	for _, t := range m {
		t.FallbackUsed(phase, kind, entity)
	}
}

func (m Multi) QuiescenceReached(phase string, round int) {
	for _, t := range m {
		t.QuiescenceReached(phase, round)
	}
}
