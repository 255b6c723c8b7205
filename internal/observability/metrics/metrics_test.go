package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestEngineMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.ObserveClassification("work", 0.0012)
	m.ObserveClassification("personal", 0.0008)
	m.ObserveError("timeout")
	m.ObserveRecordFailure()
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var m *EngineMetrics
	m.ObserveClassification("work", 0.001)
	m.ObserveError("invalid_input")
	m.ObserveRecordFailure()
}
