package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/firewatch/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// AuditWriter publishes search audit events to a Kafka topic.
// It implements proxy.AuditRecorder.
type AuditWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewAuditWriter creates an asynchronous producer for the audit topic.
// Record returns as soon as the event is queued; delivery failures are logged.
func NewAuditWriter(brokers []string, topic string, logger *slog.Logger) *AuditWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
		Async:        true,
	}
	aw := &AuditWriter{writer: w, logger: logger}
	w.Completion = aw.completed
	return aw
}

// Record serializes and queues one audit event.
func (w *AuditWriter) Record(ctx context.Context, event domain.SearchEvent) error {
	msg, err := serializeEvent(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// Close flushes queued events and closes the producer.
func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

func (w *AuditWriter) completed(messages []kafkago.Message, err error) {
	if err != nil {
		w.logger.Error("audit publish failed", "error", err, "messages", len(messages))
	}
}

// serializeEvent marshals a SearchEvent into a Kafka message keyed by index.
func serializeEvent(event domain.SearchEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize search event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Index),
		Value: data,
		Time:  event.At,
		Headers: []kafkago.Header{
			{Key: "request_id", Value: []byte(event.RequestID)},
			{Key: "outcome", Value: []byte(event.Outcome)},
		},
	}, nil
}
