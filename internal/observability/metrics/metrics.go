// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_voice_call"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Call metrics
	CallsStarted   prometheus.Counter
	CallsActive    prometheus.Gauge
	CallsFinalized *prometheus.CounterVec
	CallDuration   prometheus.Histogram

	// Turn metrics
	TurnsTotal  *prometheus.CounterVec
	TurnLatency prometheus.Histogram

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter
	ChunksEmitted       prometheus.Counter
	ChunksDropped       prometheus.Counter

	// Collaborator error metrics
	RecognitionErrors *prometheus.CounterVec
	GenerationErrors  prometheus.Counter
	SynthesisErrors   prometheus.Counter

	// Protocol metrics
	FramesTotal     *prometheus.CounterVec
	ProtocolErrors  prometheus.Counter
	UnknownSessions prometheus.Counter

	// Finalization collaborator metrics
	PersistTotal  prometheus.Counter
	PersistErrors prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_started_total",
			Help:      "Total number of call sessions started",
		}),
		CallsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of currently active call sessions",
		}),
		CallsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_finalized_total",
			Help:      "Total number of call sessions finalized",
		}, []string{"reason"}),
		CallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of call sessions in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of conversational turns processed",
		}, []string{"outcome"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one recognize-reply-synthesize turn",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),

		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total media frames received",
		}),
		ChunksEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_emitted_total",
			Help:      "Total audio chunks emitted for turn processing",
		}),
		ChunksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_dropped_total",
			Help:      "Total audio chunks dropped under backpressure",
		}),

		RecognitionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_errors_total",
			Help:      "Total speech recognition failures (degraded to empty transcript)",
		}, []string{"provider"}),
		GenerationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Total reply generation failures (degraded to fallback reply)",
		}),
		SynthesisErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_errors_total",
			Help:      "Total speech synthesis failures (degraded to text-only reply)",
		}),

		FramesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total protocol frames received",
		}, []string{"event"}),
		ProtocolErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total malformed frames discarded",
		}),
		UnknownSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_session_frames_total",
			Help:      "Total frames referencing a call id with no active session",
		}),

		PersistTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_total",
			Help:      "Total call summary persistence attempts",
		}),
		PersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Total call summary persistence failures",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordCallStarted records a new call session starting.
func (m *Metrics) RecordCallStarted() {
	m.CallsStarted.Inc()
	m.CallsActive.Inc()
}

// RecordCallFinalized records a call session finalized with a reason.
func (m *Metrics) RecordCallFinalized(reason string) {
	m.CallsActive.Dec()
	m.CallsFinalized.WithLabelValues(reason).Inc()
}

// RecordCallDuration records the total duration of a call session.
func (m *Metrics) RecordCallDuration(seconds float64) {
	m.CallDuration.Observe(seconds)
}

// RecordTurn records a completed turn with its outcome label and latency.
func (m *Metrics) RecordTurn(outcome string, latencySeconds float64) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
	m.TurnLatency.Observe(latencySeconds)
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordChunkEmitted records an audio chunk handed to turn processing.
func (m *Metrics) RecordChunkEmitted() {
	m.ChunksEmitted.Inc()
}

// RecordChunkDropped records a chunk discarded under backpressure.
func (m *Metrics) RecordChunkDropped() {
	m.ChunksDropped.Inc()
}

// RecordRecognitionError records a recognition failure.
func (m *Metrics) RecordRecognitionError(provider string) {
	m.RecognitionErrors.WithLabelValues(provider).Inc()
}

// RecordGenerationError records a reply generation failure.
func (m *Metrics) RecordGenerationError() {
	m.GenerationErrors.Inc()
}

// RecordSynthesisError records a speech synthesis failure.
func (m *Metrics) RecordSynthesisError() {
	m.SynthesisErrors.Inc()
}

// RecordFrame records a received protocol frame by event type.
func (m *Metrics) RecordFrame(event string) {
	m.FramesTotal.WithLabelValues(event).Inc()
}

// RecordProtocolError records a malformed frame.
func (m *Metrics) RecordProtocolError() {
	m.ProtocolErrors.Inc()
}

// RecordUnknownSession records a frame for a call id with no session.
func (m *Metrics) RecordUnknownSession() {
	m.UnknownSessions.Inc()
}

// RecordPersist records a persistence attempt.
func (m *Metrics) RecordPersist(err error) {
	m.PersistTotal.Inc()
	if err != nil {
		m.PersistErrors.Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
