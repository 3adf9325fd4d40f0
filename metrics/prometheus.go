package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Collector backed by Prometheus.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	schedulePasses prometheus.Histogram
	assignments    prometheus.Counter
	ingestions     *prometheus.CounterVec
	costEntries    prometheus.Counter
	toggles        *prometheus.CounterVec
	lockTimeouts   *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates a Prometheus-backed collector.
//
// Parameters:
//   - reg: registerer (prometheus.DefaultRegisterer if nil)
//   - namespace: metric namespace ("household" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "household"
	}
	p := &Prometheus{reg: reg, namespace: namespace}
	p.ensureRegistered()
	return p
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.schedulePasses = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "pass_duration_seconds",
			Help:      "Duration of schedule extension passes in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		})
		p.assignments = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "assignments_created_total",
			Help:      "Total cleaning assignments created by extension passes.",
		})
		p.ingestions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "billing",
			Name:      "ingestions_total",
			Help:      "Total bill ingestions by result (applied,already_exists,partial,failed).",
		}, []string{"result"})
		p.costEntries = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "billing",
			Name:      "cost_entries_created_total",
			Help:      "Total per-room cost entries written.",
		})
		p.toggles = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "toggles_total",
			Help:      "Total task and acceptance flag updates by kind and result.",
		}, []string{"kind", "result"})
		p.lockTimeouts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "lock_timeouts_total",
			Help:      "Total lock acquisitions that gave up, by scope.",
		}, []string{"scope"})

		p.reg.MustRegister(
			p.schedulePasses,
			p.assignments,
			p.ingestions,
			p.costEntries,
			p.toggles,
			p.lockTimeouts,
		)
	})
}

func (p *Prometheus) ObserveSchedulePass(created int, seconds float64) {
	p.ensureRegistered()
	p.schedulePasses.Observe(seconds)
	p.assignments.Add(float64(created))
}

func (p *Prometheus) IncIngestion(result string) {
	p.ensureRegistered()
	p.ingestions.WithLabelValues(result).Inc()
}

func (p *Prometheus) AddCostEntries(n int) {
	p.ensureRegistered()
	p.costEntries.Add(float64(n))
}

func (p *Prometheus) IncToggle(kind, result string) {
	p.ensureRegistered()
	p.toggles.WithLabelValues(kind, result).Inc()
}

func (p *Prometheus) IncLockTimeout(scope string) {
	p.ensureRegistered()
	p.lockTimeouts.WithLabelValues(scope).Inc()
}
