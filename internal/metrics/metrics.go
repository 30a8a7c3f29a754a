// Package metrics exposes the service's Prometheus collectors. Collectors
// register against the default registry so handlers, services, and the
// websocket hub share one metrics surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scoringDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exampulse_scoring_duration_seconds",
		Help:    "Time spent producing one risk assessment",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "level"})

	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exampulse_assessments_total",
		Help: "Risk assessments produced, by scoring kind and resulting level",
	}, []string{"kind", "level"})

	alertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exampulse_alerts_total",
		Help: "High risk alerts raised",
	})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exampulse_websocket_connections",
		Help: "Currently connected proctor websocket clients",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exampulse_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// ObserveScoring records one scoring run. kind is "event" or "session".
func ObserveScoring(kind, level string, d time.Duration) {
	scoringDuration.WithLabelValues(kind, level).Observe(d.Seconds())
	assessmentsTotal.WithLabelValues(kind, level).Inc()
}

// IncAlerts counts a raised high-risk alert.
func IncAlerts() {
	alertsTotal.Inc()
}

// WSConnect and WSDisconnect track live proctor connections.
func WSConnect()    { wsConnections.Inc() }
func WSDisconnect() { wsConnections.Dec() }

// ObserveHTTP records one served request.
func ObserveHTTP(method, path, status string, d time.Duration) {
	httpDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}
