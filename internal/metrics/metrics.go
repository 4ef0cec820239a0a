// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourorg/hoops-valuation/internal/circuitbreaker"
)

// Metrics groups every collector the service exports
type Metrics struct {
	requestCounter   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	circuitBreaker   prometheus.Gauge
	tradeOutcomes    *prometheus.CounterVec
	rankedEntities   *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoops_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoops_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoops_analytics_requests_total",
				Help: "Analytics API calls by operation and outcome",
			},
			[]string{"op", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoops_analytics_request_duration_seconds",
				Help:    "Analytics API call duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
		circuitBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hoops_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
		tradeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoops_trade_evaluations_total",
				Help: "Trade evaluations by outcome",
			},
			[]string{"outcome"},
		),
		rankedEntities: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoops_ranked_entities",
				Help:    "Rows returned by ranking endpoints after filtering",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"view"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.upstreamRequests,
		m.upstreamDuration,
		m.circuitBreaker,
		m.tradeOutcomes,
		m.rankedEntities,
	)
	return m
}

// ObserveRequest records one Analytics API call
func (m *Metrics) ObserveRequest(op, status string, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(op, status).Inc()
	if elapsed > 0 {
		m.upstreamDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

// SetCircuitState exports the breaker state
func (m *Metrics) SetCircuitState(s circuitbreaker.State) {
	m.circuitBreaker.Set(float64(s))
}

// TradeOutcome counts an evaluation result: "ok", "violations" or "failed"
func (m *Metrics) TradeOutcome(outcome string) {
	m.tradeOutcomes.WithLabelValues(outcome).Inc()
}

// Ranked records how many rows a ranking view returned
func (m *Metrics) Ranked(view string, n int) {
	m.rankedEntities.WithLabelValues(view).Observe(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts and times requests by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
