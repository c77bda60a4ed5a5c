// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "health_assist_inference"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Turn metrics
	TurnsTotal   *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec

	// Pipeline stage metrics
	StageLatency *prometheus.HistogramVec
	StageErrors  *prometheus.CounterVec

	// Severity metrics
	SeverityTiers          *prometheus.CounterVec
	SeverityClassifyFailed prometheus.Counter

	// Audio metrics
	AudioBytesReceived   prometheus.Counter
	AudioUploadsRejected prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Turn metrics
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversation turns processed",
		}, []string{"modality"}),
		TurnDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn processing duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"modality"}),

		// Pipeline stage metrics
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Per-stage pipeline latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Total number of failed pipeline stage executions",
		}, []string{"stage"}),

		// Severity metrics
		SeverityTiers: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_tiers_total",
			Help:      "Total turns per assigned severity tier",
		}, []string{"tier"}),
		SeverityClassifyFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "severity_classify_failed_total",
			Help:      "Total number of failed severity classifications",
		}),

		// Audio metrics
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received across uploads",
		}),
		AudioUploadsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_uploads_rejected_total",
			Help:      "Total number of audio uploads rejected by normalization",
		}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		}, []string{"route", "status"}),
		HTTPRequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "HTTP API request latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"route"}),
	}
}

// RecordStage records one pipeline stage execution. Implements the
// orchestrator's instrumentation hook.
func (m *Metrics) RecordStage(stage string, duration time.Duration, success bool) {
	m.StageLatency.WithLabelValues(stage).Observe(duration.Seconds())
	if !success {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordTurn records a completed conversation turn.
func (m *Metrics) RecordTurn(modality, tier string, durationSeconds float64) {
	m.TurnsTotal.WithLabelValues(modality).Inc()
	m.TurnDuration.WithLabelValues(modality).Observe(durationSeconds)
	m.SeverityTiers.WithLabelValues(tier).Inc()
}

// RecordSeverityFailure records a failed severity classification.
func (m *Metrics) RecordSeverityFailure() {
	m.SeverityClassifyFailed.Inc()
}

// RecordAudioReceived records audio bytes received in an upload.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordAudioRejected records an audio upload rejected by normalization.
func (m *Metrics) RecordAudioRejected() {
	m.AudioUploadsRejected.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a completed HTTP API request.
func (m *Metrics) RecordHTTPRequest(route, status string, latencySeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestLatency.WithLabelValues(route).Observe(latencySeconds)
}
