package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/internal/core/service"
)

const namespace = "tokrelay"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Collection
	ReportsAccepted prometheus.Counter
	ReportsRejected *prometheus.CounterVec

	// Delivery
	Deliveries       *prometheus.CounterVec
	DeliveryAttempts *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram

	// Tokens
	TokensIssued  prometheus.Counter
	TokensRevoked prometheus.Counter

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var _ service.DeliveryObserver = (*Registry)(nil)

// NewRegistry creates a registry with every TokRelay metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ReportsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_accepted_total",
			Help:      "Reports accepted and queued for delivery",
		}),
		ReportsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rejected_total",
			Help:      "Report submissions refused, by reason",
		}, []string{"reason"}),

		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Finished report deliveries, by final state",
		}, []string{"state"}),
		DeliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Individual push attempts, by message kind and result",
		}, []string{"kind", "result"}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Time from dequeue to the end of a report's delivery pipeline",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Collection tokens issued",
		}),
		TokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_revoked_total",
			Help:      "Collection tokens revoked",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status code",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ReportsAccepted,
		r.ReportsRejected,
		r.Deliveries,
		r.DeliveryAttempts,
		r.DeliveryDuration,
		r.TokensIssued,
		r.TokensRevoked,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer exposes the underlying registry for components that register
// their own collectors, such as the Badger engine.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WatchQueueDepth registers a gauge that reads the delivery queue depth at
// scrape time.
func (r *Registry) WatchQueueDepth(depth func() int) {
	r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "delivery_queue_depth",
		Help:      "Reports waiting for a delivery worker",
	}, func() float64 {
		return float64(depth())
	}))
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// StateChanged implements service.DeliveryObserver.
func (r *Registry) StateChanged(_ string, state domain.DeliveryState) {
	if state == domain.StateQueued {
		r.ReportsAccepted.Inc()
	}
}

// Rejected implements service.DeliveryObserver.
func (r *Registry) Rejected(reason string) {
	r.ReportsRejected.WithLabelValues(reason).Inc()
}

// Attempted implements service.DeliveryObserver.
func (r *Registry) Attempted(kind string, _ int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.DeliveryAttempts.WithLabelValues(kind, result).Inc()
}

// Finished implements service.DeliveryObserver.
func (r *Registry) Finished(o service.Outcome) {
	r.Deliveries.WithLabelValues(string(o.State)).Inc()
	r.DeliveryDuration.Observe(o.Duration.Seconds())
}

// TokenIssued counts a token created through the admin API.
func (r *Registry) TokenIssued() {
	r.TokensIssued.Inc()
}

// TokenRevoked counts a token revoked through the admin API.
func (r *Registry) TokenRevoked() {
	r.TokensRevoked.Inc()
}
