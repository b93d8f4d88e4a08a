// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelinesTotal tracks matching pipeline runs by direction and outcome
	PipelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "pipelines_total",
			Help:      "Total number of matching pipeline runs by direction and status",
		},
		[]string{"direction", "status"},
	)

	// PipelineDuration tracks matching pipeline duration in seconds
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of matching pipeline runs in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"direction"},
	)

	// MatchesCreatedTotal tracks matches persisted by direction
	MatchesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "matches_created_total",
			Help:      "Total number of matches persisted",
		},
		[]string{"direction"},
	)

	// CandidatesExcludedTotal tracks hard exclusions by reason
	CandidatesExcludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "candidates_excluded_total",
			Help:      "Total number of candidates dropped by hard filters",
		},
		[]string{"reason"},
	)

	// GroupRefreshesTotal tracks match group recomputations
	GroupRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matchgroup",
			Name:      "refreshes_total",
			Help:      "Total number of match group refreshes by outcome",
		},
		[]string{"status"},
	)

	// GroupRefreshesCoalesced tracks refresh calls that joined an in-flight run
	GroupRefreshesCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matchgroup",
			Name:      "refreshes_coalesced_total",
			Help:      "Refresh calls that shared an in-flight recomputation",
		},
	)

	// NotificationsTotal tracks notification events emitted
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "notifications",
			Name:      "events_total",
			Help:      "Total number of notification events emitted by type and status",
		},
		[]string{"event_type", "status"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish duration
	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		},
	)
)

// RecordPipeline records one pipeline run
func RecordPipeline(direction, status string, durationSeconds float64) {
	PipelinesTotal.WithLabelValues(direction, status).Inc()
	PipelineDuration.WithLabelValues(direction).Observe(durationSeconds)
}

// RecordExclusion records a hard candidate exclusion
func RecordExclusion(reason string) {
	CandidatesExcludedTotal.WithLabelValues(reason).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
	KafkaPublishDuration.Observe(durationSeconds)
}
