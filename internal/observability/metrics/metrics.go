package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the classification engine.
type EngineMetrics struct {
	classificationsTotal *prometheus.CounterVec
	classificationErrors *prometheus.CounterVec
	inferenceLatency     prometheus.Histogram
	statsRecordFailures  prometheus.Counter
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		classificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbot",
			Subsystem: "engine",
			Name:      "classifications_total",
			Help:      "Total successful classifications by label",
		}, []string{"label"}),
		classificationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbot",
			Subsystem: "engine",
			Name:      "classification_errors_total",
			Help:      "Total failed classification requests by reason",
		}, []string{"reason"}),
		inferenceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "workbot",
			Subsystem: "engine",
			Name:      "inference_latency_seconds",
			Help:      "Latency of a single inference call",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		statsRecordFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workbot",
			Subsystem: "engine",
			Name:      "stats_record_failures_total",
			Help:      "Total stats updates dropped after a successful classification",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.classificationsTotal, m.classificationErrors, m.inferenceLatency, m.statsRecordFailures)
	return m
}

func (m *EngineMetrics) ObserveClassification(label string, seconds float64) {
	if m == nil {
		return
	}
	m.classificationsTotal.WithLabelValues(label).Inc()
	m.inferenceLatency.Observe(seconds)
}

func (m *EngineMetrics) ObserveError(reason string) {
	if m == nil {
		return
	}
	m.classificationErrors.WithLabelValues(reason).Inc()
}

func (m *EngineMetrics) ObserveRecordFailure() {
	if m == nil {
		return
	}
	m.statsRecordFailures.Inc()
}
