package trace

import "log/slog"

// Logger is a Tracer backed by log/slog, logging every lifecycle
// transition (task scheduling, dispatch, quiescence).
type Logger struct {
	Handler *slog.Logger
}

// NewLogger wraps h, or slog.Default() if h is nil.
func NewLogger(h *slog.Logger) *Logger {
	if h == nil {
		h = slog.Default()
	}
	return &Logger{Handler: h}
}

func (l *Logger) TaskScheduled(phase, kind, entity string) {
	l.Handler.Debug("task scheduled", "phase", phase, "kind", kind, "entity", entity)
}

func (l *Logger) UpdateHandled(phase, kind, entity, variant string) {
	l.Handler.Debug("update handled", "phase", phase, "kind", kind, "entity", entity, "variant", variant)
}

func (l *Logger) DependerNotified(phase, depender, dependee string) {
	l.Handler.Debug("depender notified", "phase", phase, "depender", depender, "dependee", dependee)
}

func (l *Logger) CycleResolved(phase string, members []string) {
	l.Handler.Info("cycle resolved", "phase", phase, "members", members, "count", len(members))
}

func (l *Logger) FallbackUsed(phase, kind, entity string) {
	l.Handler.Info("fallback used", "phase", phase, "kind", kind, "entity", entity)
}

func (l *Logger) QuiescenceReached(phase string, round int) {
	l.Handler.Info("quiescence round complete", "phase", phase, "round", round)
}
