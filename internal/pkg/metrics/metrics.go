// Package metrics holds the Prometheus collectors shared by the arcade domains.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arcade"

var (
	CreditAdjustments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credit_adjustments_total",
		Help:      "Ledger adjustments by transaction type and result.",
	}, []string{"type", "result"})

	QuizGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_generation_total",
		Help:      "Calls to the external quiz generator by result.",
	}, []string{"result"})

	QuizCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quiz_cache_total",
		Help:      "Quiz lookups by the layer that answered (authored, redis, store, generated, miss).",
	}, []string{"layer"})

	QuizFlowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quizflow_transitions_total",
		Help:      "Quiz flow state transitions by target state.",
	}, []string{"state"})

	Purchases = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Arcade session purchases by result.",
	}, []string{"result"})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_connections",
		Help:      "Open websocket connections on this instance.",
	})

	WebsocketEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "websocket_events_dropped_total",
		Help:      "Events dropped because a connection send buffer was full.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
