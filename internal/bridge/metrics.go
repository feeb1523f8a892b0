package bridge

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// Metrics holds Prometheus metrics for credential bridging.
type Metrics struct {
	loginsTotal   *prometheus.CounterVec
	loginDuration *prometheus.HistogramVec
	cacheResults  *prometheus.CounterVec
}

// GetMetrics returns the global bridge metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

func newMetrics() *Metrics {
	return &Metrics{
		loginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "starlight",
				Subsystem: "bridge",
				Name:      "logins_total",
				Help:      "Total number of backend login attempts",
			},
			[]string{"service", "result"},
		),
		loginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "starlight",
				Subsystem: "bridge",
				Name:      "login_duration_seconds",
				Help:      "Backend login latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		cacheResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "starlight",
				Subsystem: "bridge",
				Name:      "cache_results_total",
				Help:      "Derived-credential cache lookups by result",
			},
			[]string{"service", "result"},
		),
	}
}

// RecordLogin records the outcome and latency of a backend login.
func (m *Metrics) RecordLogin(service, result string, seconds float64) {
	m.loginsTotal.WithLabelValues(service, result).Inc()
	m.loginDuration.WithLabelValues(service).Observe(seconds)
}

// RecordCacheResult records a derived-credential cache hit or miss.
func (m *Metrics) RecordCacheResult(service, result string) {
	m.cacheResults.WithLabelValues(service, result).Inc()
}
