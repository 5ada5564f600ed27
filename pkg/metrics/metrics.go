// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server updates. All fields are safe
// for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	TurnsProcessed  prometheus.Counter
	OrdersSubmitted prometheus.Counter
	Timeouts        prometheus.Counter
	Forfeits        prometheus.Counter
	Battles         prometheus.Counter
	GamesCreated    prometheus.Counter
	SaveFailures    prometheus.Counter

	ActiveGames prometheus.Gauge

	TurnDuration prometheus.Histogram
}

// New creates the collectors on a private registry so tests can build
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TurnsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_turns_processed_total",
			Help: "Turns processed across all games.",
		}),
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_orders_submitted_total",
			Help: "Turn order sets accepted from players.",
		}),
		Timeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_empire_timeouts_total",
			Help: "Turn deadlines missed by human empires.",
		}),
		Forfeits: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_empire_forfeits_total",
			Help: "Empires forfeited to AI control after repeated timeouts.",
		}),
		Battles: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_battles_total",
			Help: "Battles resolved at contested stars.",
		}),
		GamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_games_created_total",
			Help: "Games created.",
		}),
		SaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "stellar_save_failures_total",
			Help: "Snapshot persistence failures, including breaker rejections.",
		}),
		ActiveGames: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stellar_active_games",
			Help: "Games currently resident in the registry.",
		}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stellar_turn_duration_seconds",
			Help:    "Wall time spent processing one turn.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
