package audit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// Metrics holds Prometheus metrics for the audit log.
type Metrics struct {
	entriesTotal *prometheus.CounterVec
}

// GetMetrics returns the global audit metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

func newMetrics() *Metrics {
	return &Metrics{
		entriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "starlight",
				Subsystem: "audit",
				Name:      "entries_total",
				Help:      "Total number of audit entries recorded",
			},
			[]string{"service", "status"},
		),
	}
}

// RecordEntry increments the entry counter for a service and status.
func (m *Metrics) RecordEntry(service string, status Status) {
	m.entriesTotal.WithLabelValues(service, string(status)).Inc()
}
