// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bambochat_connections_active",
			Help: "Currently connected websocket sessions",
		},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bambochat_messages_sent_total",
			Help: "Total messages persisted",
		},
	)

	ReactionsToggled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bambochat_reactions_toggled_total",
			Help: "Total reaction toggles applied",
		},
	)

	ReadReceipts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bambochat_read_receipts_total",
			Help: "Total read watermark updates",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bambochat_events_published_total",
			Help: "Total room events published",
		},
		[]string{"event"},
	)
)
