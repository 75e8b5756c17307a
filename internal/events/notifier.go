// Package events publishes call lifecycle events to Kafka. Notification
// is best-effort: one attempt per finalize, failures logged and dropped.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-voice-call-service/internal/observability/metrics"
	"ai-voice-call-service/internal/session"
)

// CallEnded is the event published when a call session is finalized.
type CallEnded struct {
	EventType   string            `json:"eventType"`
	CallSid     string            `json:"callSid"`
	PhoneNumber string            `json:"phoneNumber"`
	Reason      string            `json:"reason"`
	Stage       string            `json:"stage"`
	Fields      map[string]string `json:"fields"`
	Transcript  string            `json:"transcript"`
	StartedAt   int64             `json:"startedAt"`
	EndedAt     int64             `json:"endedAt"`
}

// Config holds Kafka notifier configuration.
type Config struct {
	Brokers   []string
	Topic     string
	Principal string
	Enabled   bool
}

// Notifier publishes call.ended events. When Kafka is disabled it runs
// in log-only mode so finalization never depends on a broker.
type Notifier struct {
	writer    *kafka.Writer
	topic     string
	principal string
	enabled   bool
	metrics   *metrics.Metrics
}

// New creates a Kafka notifier.
func New(cfg *Config) *Notifier {
	m := metrics.DefaultMetrics

	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, notifier in log-only mode")
		n := &Notifier{enabled: false, metrics: m}
		if cfg != nil {
			n.topic = cfg.Topic
			n.principal = cfg.Principal
		}
		return n
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("principal", cfg.Principal).
		Msg("Kafka notifier initialized")

	return &Notifier{
		writer:    writer,
		topic:     cfg.Topic,
		principal: cfg.Principal,
		enabled:   true,
		metrics:   m,
	}
}

// NotifyCallEnded publishes a call.ended event keyed by call id.
func (n *Notifier) NotifyCallEnded(ctx context.Context, summary session.CallSummary) error {
	start := time.Now()

	fields := make(map[string]string, len(summary.Fields))
	for _, f := range summary.Fields {
		fields[f.Name] = f.Value
	}
	ev := CallEnded{
		EventType:   "call.ended",
		CallSid:     summary.CallSid,
		PhoneNumber: summary.PhoneNumber,
		Reason:      summary.Reason.String(),
		Stage:       summary.Stage.String(),
		Fields:      fields,
		Transcript:  summary.TranscriptText(),
		StartedAt:   summary.StartedAt.UnixMilli(),
		EndedAt:     summary.EndedAt.UnixMilli(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("topic", n.topic).Msg("Failed to marshal call.ended event")
		return err
	}

	log.Debug().
		Str("principal", n.principal).
		Str("topic", n.topic).
		Str("callSid", summary.CallSid).
		RawJSON("payload", payload).
		Msg("Publishing call.ended event")

	if !n.enabled || n.writer == nil {
		n.metrics.RecordKafkaPublish(n.topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(summary.CallSid),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(ev.EventType)},
			{Key: "principal", Value: []byte(n.principal)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", n.topic).
			Str("callSid", summary.CallSid).
			Msg("Failed to write to Kafka")
		n.metrics.RecordKafkaPublish(n.topic, err, time.Since(start).Seconds())
		return err
	}

	n.metrics.RecordKafkaPublish(n.topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (n *Notifier) Close() error {
	if n.writer == nil {
		return nil
	}
	if err := n.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Kafka writer")
		return err
	}
	return nil
}
