package chathub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storybook_ws_active_connections",
		Help: "Number of live websocket channels on this instance",
	})

	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storybook_ws_events_delivered_total",
		Help: "Events queued to a live channel",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storybook_ws_events_dropped_total",
		Help: "Events dropped because the channel was closed or full",
	})

	busMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storybook_bus_messages_total",
		Help: "Events exchanged over the redis bus by direction",
	}, []string{"direction"})
)
