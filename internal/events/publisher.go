package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher emits ledger events after the owning transaction has committed.
// Publishing is best-effort: a lost event never rolls back ledger state.
type Publisher interface {
	Publish(ctx context.Context, e Envelope)
	Close() error
}

// NopPublisher drops all events. Used when kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) {}
func (NopPublisher) Close() error                      { return nil }

// KafkaPublisher writes envelopes to kafka asynchronously.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates an async kafka publisher for the given brokers.
func NewKafkaPublisher(brokers []string, logger zerolog.Logger) *KafkaPublisher {
	logger = logger.With().Str("component", "event-publisher").Logger()
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error().Err(err).Int("count", len(messages)).Msg("failed to publish events")
			}
		},
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish writes the envelope to its event-type topic, keyed by the
// correlation id so per-aggregate ordering is preserved.
func (p *KafkaPublisher) Publish(ctx context.Context, e Envelope) {
	value, err := json.Marshal(e)
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", e.EventType).Msg("failed to marshal event")
		return
	}

	msg := kafka.Message{
		Topic: e.Topic(),
		Key:   []byte(e.CorrelationID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		// Async mode only surfaces enqueue errors here; delivery failures
		// are reported through the completion callback.
		p.logger.Error().Err(err).Str("event_type", e.EventType).Msg("failed to enqueue event")
	}
}

// Close flushes buffered messages and shuts the writer down.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
