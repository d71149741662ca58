package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"copydesk/internal/domain"
)

// messageWriter is the subset of *kafka.Writer used by KafkaSink
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes audit events as JSON messages
type KafkaSink struct {
	writer messageWriter
	Topic  string
}

// NewKafkaSink creates a Kafka publisher for audit events
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: writer, Topic: topic}
}

// Write publishes the event keyed by entity id so events of one record stay ordered
func (s *KafkaSink) Write(ctx context.Context, event domain.AuditEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := []byte(event.EntityID)
	if len(key) == 0 {
		key = []byte(event.Action)
	}

	msg := kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close closes the underlying Kafka writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
