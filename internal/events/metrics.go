package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_events_published_total",
		Help: "Refresh events delivered to subscriber buffers",
	})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "suidash_events_dropped_total",
		Help: "Refresh events dropped because a subscriber buffer was full",
	})

	SubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "suidash_events_subscribers",
		Help: "Currently connected refresh feed subscribers",
	})
)
