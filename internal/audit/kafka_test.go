package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copydesk/internal/domain"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSinkWrite(t *testing.T) {
	writer := &fakeWriter{}
	sink := &KafkaSink{writer: writer, Topic: "admin-audit"}

	event := domain.AuditEvent{
		AdminID:   "admin-1",
		Action:    "slave_add",
		Entity:    "slave_accounts",
		EntityID:  "slave-1",
		ClientIP:  "10.0.0.1",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, sink.Write(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "slave-1", string(msg.Key))

	var decoded domain.AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.Action, decoded.Action)
	assert.Equal(t, event.AdminID, decoded.AdminID)
}

func TestKafkaSinkKeyFallsBackToAction(t *testing.T) {
	writer := &fakeWriter{}
	sink := &KafkaSink{writer: writer}

	require.NoError(t, sink.Write(context.Background(), domain.AuditEvent{Action: "fetch_all_masters"}))
	assert.Equal(t, "fetch_all_masters", string(writer.messages[0].Key))
}

func TestKafkaSinkWrapsWriteError(t *testing.T) {
	sink := &KafkaSink{writer: &fakeWriter{err: errors.New("broker down")}}

	err := sink.Write(context.Background(), domain.AuditEvent{Action: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write")
}
