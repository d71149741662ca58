package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copydesk/internal/domain"
	"copydesk/internal/utils"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
	block  chan struct{}
}

func (s *recordingSink) Write(ctx context.Context, event domain.AuditEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type countingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *countingAlerter) Alert(ctx context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *countingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

func TestDispatcherDeliversAndFillsDefaults(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, Options{})

	d.Record(domain.AuditEvent{Action: "slave_add", Entity: "slave_accounts", EntityID: "s-1"})
	require.NoError(t, d.Close(context.Background()))

	require.Equal(t, 1, sink.count())
	event := sink.events[0]
	assert.Equal(t, domain.SystemActorID, event.AdminID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, utils.GetLocation(), event.Timestamp.Location())
	assert.Equal(t, Stats{Delivered: 1}, d.Stats())
}

func TestDispatcherSwallowsSinkFailures(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	alerter := &countingAlerter{}
	d := NewDispatcher(sink, alerter, Options{AlertInterval: time.Hour})

	for i := 0; i < 3; i++ {
		d.Record(domain.AuditEvent{Action: "slave_delete"})
	}
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, uint64(3), d.Stats().Failed)
	assert.Equal(t, 1, alerter.count(), "alerts are throttled")
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, nil, Options{QueueSize: 1})

	// first event is taken by the worker and blocks, second fills the queue
	d.Record(domain.AuditEvent{Action: "a"})
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	d.Record(domain.AuditEvent{Action: "b"})
	d.Record(domain.AuditEvent{Action: "c"})

	assert.Equal(t, uint64(1), d.Stats().Dropped)

	close(sink.block)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, sink.count())
}

func TestDispatcherRecordAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, nil, Options{})
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	d.Record(domain.AuditEvent{Action: "late"})
	assert.Equal(t, uint64(1), d.Stats().Dropped)
	assert.Equal(t, 0, sink.count())
}

func TestDispatcherCloseHonoursContext(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, nil, Options{})
	d.Record(domain.AuditEvent{Action: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, d.Close(ctx))
	close(sink.block)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("kafka unavailable")}

	err := MultiSink{ok, failing}.Write(context.Background(), domain.AuditEvent{Action: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka unavailable")
	assert.Equal(t, 1, ok.count())
}
