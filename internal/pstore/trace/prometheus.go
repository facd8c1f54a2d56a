package trace

import "github.com/prometheus/client_golang/prometheus"

// Prometheus is a Tracer that exposes the store's lifecycle counters as
// Prometheus counters and histograms via client_golang.
type Prometheus struct {
	tasksScheduled    prometheus.Counter
	dependerNotified  prometheus.Counter
	cyclesResolved    prometheus.Counter
	fallbacksUsed     prometheus.Counter
	quiescenceRounds  prometheus.Counter
	sccMembersHist    prometheus.Histogram
}

// NewPrometheus creates a Prometheus tracer and registers its metrics
// against reg. Pass prometheus.DefaultRegisterer to publish on the default
// /metrics endpoint.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		tasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpcf_tasks_scheduled_total",
			Help: "Total compute tasks scheduled by the property store.",
		}),
		dependerNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpcf_depender_notifications_total",
			Help: "Total depender notifications sent.",
		}),
		cyclesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpcf_cycles_resolved_total",
			Help: "Total closed SCCs resolved.",
		}),
		fallbacksUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpcf_fallbacks_used_total",
			Help: "Total fallback values injected at quiescence.",
		}),
		quiescenceRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fpcf_quiescence_rounds_total",
			Help: "Total post-processing rounds run at quiescence.",
		}),
		sccMembersHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fpcf_scc_member_count",
			Help:    "Distribution of closed-SCC sizes at resolution time.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
	}
	reg.MustRegister(p.tasksScheduled, p.dependerNotified, p.cyclesResolved,
		p.fallbacksUsed, p.quiescenceRounds, p.sccMembersHist)
	return p
}

func (p *Prometheus) TaskScheduled(phase, kind, entity string) { p.tasksScheduled.Inc() }

func (p *Prometheus) UpdateHandled(phase, kind, entity, variant string) {}

func (p *Prometheus) DependerNotified(phase, depender, dependee string) { p.dependerNotified.Inc() }

func (p *Prometheus) CycleResolved(phase string, members []string) {
	p.cyclesResolved.Inc()
	p.sccMembersHist.Observe(float64(len(members)))
}

func (p *Prometheus) FallbackUsed(phase, kind, entity string) { p.fallbacksUsed.Inc() }

func (p *Prometheus) QuiescenceReached(phase string, round int) { p.quiescenceRounds.Inc() }
