package asyncop

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the registry's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	operations *prometheus.GaugeVec
	submitted  prometheus.Counter
	rejected   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zallet",
			Subsystem: "asyncop",
			Name:      "operations",
			Help:      "Tracked async operations by state.",
		}, []string{"state"}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zallet",
			Subsystem: "asyncop",
			Name:      "submitted_total",
			Help:      "Async operations submitted.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zallet",
			Subsystem: "asyncop",
			Name:      "rejected_transitions_total",
			Help:      "State transitions refused because they broke the operation lifecycle.",
		}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.submitted, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, s := range allStates {
		m.operations.WithLabelValues(s.String()).Set(0)
	}
	return m, nil
}

func (m *Metrics) submit() {
	if m == nil {
		return
	}
	m.submitted.Inc()
	m.operations.WithLabelValues(Pending.String()).Inc()
}

func (m *Metrics) move(from, to State) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(from.String()).Dec()
	m.operations.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) reject() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}
