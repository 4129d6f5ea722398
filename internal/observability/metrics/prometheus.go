// Package metrics provides Prometheus metrics for the order view services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	ViewsComputed         prometheus.Counter
	ViewDuration          prometheus.Histogram
	ViewOrdersReturned    prometheus.Histogram
	StatusDerivations     prometheus.Counter
	StatusDriftRepaired   prometheus.Counter
	EnrichmentFallbacks   prometheus.Counter
	KafkaMessagesProduced prometheus.Counter
	KafkaMessagesConsumed prometheus.Counter
	OutboxPending         prometheus.Gauge
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		ViewsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_views_computed_total",
			Help: "Total order view pipeline runs",
		}),
		ViewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_view_duration_seconds",
			Help:    "Order view pipeline duration",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}),
		ViewOrdersReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_view_orders_returned",
			Help:    "Orders returned per view",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		}),
		StatusDerivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_status_derivations_total",
			Help: "Total parent status derivations",
		}),
		StatusDriftRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_status_drift_repaired_total",
			Help: "Cached parent statuses that differed from the derived value",
		}),
		EnrichmentFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_enrichment_fallbacks_total",
			Help: "Views served without patient enrichment",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_pending_entries",
			Help: "Pending outbox entries",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.ViewsComputed,
		m.ViewDuration,
		m.ViewOrdersReturned,
		m.StatusDerivations,
		m.StatusDriftRepaired,
		m.EnrichmentFallbacks,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.OutboxPending,
		m.CircuitBreakerState,
	)

	return m
}

// DerivationRun records one parent status derivation.
func (m *Metrics) DerivationRun() { m.StatusDerivations.Inc() }

// DriftRepaired records one cached status repair.
func (m *Metrics) DriftRepaired() { m.StatusDriftRepaired.Inc() }

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
