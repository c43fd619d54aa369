// Package metrics exposes Prometheus instrumentation for the RPC surface.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type CustodyMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	custodyOnce     sync.Once
	custodyRegistry *CustodyMetrics
)

// Custody returns the process-wide custody metrics, registering them on
// first use.
func Custody() *CustodyMetrics {
	custodyOnce.Do(func() {
		custodyRegistry = &CustodyMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "custody_rpc_requests_total",
				Help: "Count of RPC requests by method and outcome.",
			}, []string{"method", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "custody_rpc_duration_seconds",
				Help:    "RPC handler latency by method.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			custodyRegistry.requests,
			custodyRegistry.duration,
		)
	})
	return custodyRegistry
}

// ObserveRequest records one handled request.
func (m *CustodyMetrics) ObserveRequest(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(seconds)
}
