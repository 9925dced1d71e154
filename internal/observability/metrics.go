// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ledger metrics
	RevenueEventsRecorded  *prometheus.CounterVec
	RevenueEventsRejected  *prometheus.CounterVec
	BotsCreated            prometheus.Counter
	FundingSourcesCreated  prometheus.Counter
	LpPositionsCreated     prometheus.Counter
	SimulationRoundsTotal  *prometheus.CounterVec
	StreamSubscribers      prometheus.Gauge
	StreamDroppedSubscribe prometheus.Counter

	// Upstream metrics
	UpstreamCallLatency *prometheus.HistogramVec
	UpstreamCallErrors  *prometheus.CounterVec
	PriceCacheLookups   *prometheus.CounterVec

	// Deployment metrics
	DeployTransactions *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "funding_ledger"
	}

	return &Metrics{
		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Ledger metrics
		RevenueEventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "revenue_events_recorded_total",
			Help:      "Total number of revenue events recorded by event type",
		}, []string{"event_type"}),
		RevenueEventsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "revenue_events_rejected_total",
			Help:      "Total number of revenue events rejected by reason",
		}, []string{"reason"}),
		BotsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "bots_created_total",
			Help:      "Total number of bots registered",
		}),
		FundingSourcesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "funding_sources_created_total",
			Help:      "Total number of funding sources registered",
		}),
		LpPositionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "lp_positions_created_total",
			Help:      "Total number of LP positions registered",
		}),
		SimulationRoundsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "rounds_total",
			Help:      "Total number of simulation rounds by status",
		}, []string{"status"}),
		StreamSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Current number of revenue stream websocket subscribers",
		}),
		StreamDroppedSubscribe: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "dropped_subscribers_total",
			Help:      "Total number of subscribers dropped for falling behind",
		}),

		// Upstream metrics
		UpstreamCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_latency_seconds",
			Help:      "Third-party API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "call"}),
		UpstreamCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_errors_total",
			Help:      "Total number of failed third-party API calls",
		}, []string{"provider", "call"}),
		PriceCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "price_cache_lookups_total",
			Help:      "Price cache lookups by result",
		}, []string{"result"}),

		// Deployment metrics
		DeployTransactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "transactions_total",
			Help:      "Contract deployment transactions by stage and status",
		}, []string{"stage", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordRevenueEvent increments the recorded revenue events counter.
func RecordRevenueEvent(eventType string) {
	DefaultMetrics.RevenueEventsRecorded.WithLabelValues(eventType).Inc()
}

// RecordRevenueEventRejected records a rejected revenue event.
func RecordRevenueEventRejected(reason string) {
	DefaultMetrics.RevenueEventsRejected.WithLabelValues(reason).Inc()
}

// RecordBotCreated increments the bots created counter.
func RecordBotCreated() {
	DefaultMetrics.BotsCreated.Inc()
}

// RecordFundingSourceCreated increments the funding sources created counter.
func RecordFundingSourceCreated() {
	DefaultMetrics.FundingSourcesCreated.Inc()
}

// RecordLpPositionCreated increments the LP positions created counter.
func RecordLpPositionCreated() {
	DefaultMetrics.LpPositionsCreated.Inc()
}

// RecordSimulationRound records a simulation round.
func RecordSimulationRound(status string) {
	DefaultMetrics.SimulationRoundsTotal.WithLabelValues(status).Inc()
}

// SetStreamSubscribers updates the subscriber gauge.
func SetStreamSubscribers(n int) {
	DefaultMetrics.StreamSubscribers.Set(float64(n))
}

// RecordStreamDrop increments the dropped subscribers counter.
func RecordStreamDrop() {
	DefaultMetrics.StreamDroppedSubscribe.Inc()
}

// RecordUpstreamCall records a third-party call latency and failure.
func RecordUpstreamCall(provider, call string, seconds float64, err error) {
	DefaultMetrics.UpstreamCallLatency.WithLabelValues(provider, call).Observe(seconds)
	if err != nil {
		DefaultMetrics.UpstreamCallErrors.WithLabelValues(provider, call).Inc()
	}
}

// RecordPriceCache records a cache hit or miss.
func RecordPriceCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.PriceCacheLookups.WithLabelValues(result).Inc()
}

// RecordDeployTransaction records a prepare or submit outcome.
func RecordDeployTransaction(stage, status string) {
	DefaultMetrics.DeployTransactions.WithLabelValues(stage, status).Inc()
}
