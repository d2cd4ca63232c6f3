// Package metrics holds the Prometheus registry and collectors for the
// daynav service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts day solves by kind (solve/reoptimize) and outcome
	// (ok/infeasible/error).
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "daynav_solves_total", Help: "Day solves by kind and outcome."},
		[]string{"kind", "outcome"},
	)
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "daynav_solve_duration_seconds", Help: "Wall time of one day solve.", Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5}},
	)
	// OptimizerMoves counts accepted local-search moves by type.
	OptimizerMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "daynav_optimizer_moves_total", Help: "Accepted local-search moves by type."},
		[]string{"move"},
	)
	ExcludedStores = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "daynav_excluded_stores_total", Help: "Stores left out of plans across solves."},
	)

	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the package registry, once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(OptimizerMoves)
		Registry.MustRegister(ExcludedStores)
		Registry.MustRegister(WebhookDeliveries)
		Registry.MustRegister(WebhookLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
