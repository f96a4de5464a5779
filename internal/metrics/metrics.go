package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes pipeline counters and stage timings.
type Metrics struct {
	requests      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mediascope",
			Name:      "pipeline_requests_total",
			Help:      "Analysis requests by content family and outcome.",
		}, []string{"family", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mediascope",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.stageDuration)
	}
	return m
}

// ObserveRequest counts one finished request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(family, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(family, outcome).Inc()
}

// ObserveStage records the duration of one pipeline stage. Safe on a nil
// receiver.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
