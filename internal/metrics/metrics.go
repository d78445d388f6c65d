// Package metrics exposes the Prometheus counters and gauges that observe
// the server's request handling and the engine's storage behavior.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every counter and gauge this server registers.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	activeConnections  prometheus.Gauge
	compactionsTotal   prometheus.Counter
	segmentsReclaimed  prometheus.Counter
	bytesReclaimed     prometheus.Counter
}

// New registers and returns a Metrics bound to reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ignitedb_requests_total",
			Help: "requests_total counts handled requests by operation and outcome status.",
		}, []string{"op", "status"}),

		requestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ignitedb_request_duration_seconds",
			Help:    "request_duration_seconds observes how long each operation took end to end.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		activeConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "ignitedb_active_connections",
			Help: "active_connections is the number of TCP connections currently being served.",
		}),

		compactionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignitedb_compactions_total",
			Help: "compactions_total counts how many compaction passes have run.",
		}),

		segmentsReclaimed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignitedb_segments_reclaimed_total",
			Help: "segments_reclaimed_total counts segment files deleted by compaction.",
		}),

		bytesReclaimed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "ignitedb_bytes_reclaimed_total",
			Help: "bytes_reclaimed_total sums the on-disk bytes reclaimed by compaction.",
		}),
	}
}

// ObserveRequest records one handled request's operation, outcome, and
// latency.
func (m *Metrics) ObserveRequest(op, status string, seconds float64) {
	m.requestsTotal.WithLabelValues(op, status).Inc()
	m.requestDuration.WithLabelValues(op).Observe(seconds)
}

// ConnectionOpened increments the active connection gauge.
func (m *Metrics) ConnectionOpened() { m.activeConnections.Inc() }

// ConnectionClosed decrements the active connection gauge.
func (m *Metrics) ConnectionClosed() { m.activeConnections.Dec() }

// ObserveCompaction records the outcome of one compaction pass.
func (m *Metrics) ObserveCompaction(segmentsRemoved int, bytesReclaimed int64) {
	m.compactionsTotal.Inc()
	m.segmentsReclaimed.Add(float64(segmentsRemoved))
	m.bytesReclaimed.Add(float64(bytesReclaimed))
}
