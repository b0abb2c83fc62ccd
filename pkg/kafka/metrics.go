package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish metrics are labelled by topic and envelope event type.
var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readrate_events_published_total",
			Help: "Domain events written to Kafka",
		},
		[]string{"topic", "event_type"},
	)

	eventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readrate_event_publish_failures_total",
			Help: "Domain events Kafka refused or timed out on",
		},
		[]string{"topic", "event_type"},
	)

	eventPublishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readrate_event_publish_duration_seconds",
			Help:    "Time spent in a synchronous Kafka write",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic"},
	)
)
