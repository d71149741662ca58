// Package audit delivers admin audit events to one or more sinks without
// coupling the caller to delivery success.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"copydesk/internal/domain"
	"copydesk/internal/utils"
)

// Sink persists or forwards a single audit event
type Sink interface {
	Write(ctx context.Context, event domain.AuditEvent) error
}

// Stats counts dispatcher outcomes since start
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Options tunes the dispatcher
type Options struct {
	QueueSize     int
	WriteTimeout  time.Duration
	AlertInterval time.Duration
}

// Dispatcher queues events and writes them to the sink from a background
// worker. Record never blocks: when the queue is full the event is dropped.
type Dispatcher struct {
	sink    Sink
	alerter domain.Alerter
	opts    Options
	queue   chan domain.AuditEvent
	done    chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
	lastAlert time.Time

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher creates a dispatcher and starts its worker. alerter may be nil.
func NewDispatcher(sink Sink, alerter domain.Alerter, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.AlertInterval <= 0 {
		opts.AlertInterval = time.Minute
	}

	d := &Dispatcher{
		sink:    sink,
		alerter: alerter,
		opts:    opts,
		queue:   make(chan domain.AuditEvent, opts.QueueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Record enqueues an event
func (d *Dispatcher) Record(event domain.AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = utils.GetLocalTime()
	}
	if event.AdminID == "" {
		event.AdminID = domain.SystemActorID
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}

	select {
	case d.queue <- event:
	default:
		d.drop(event, "queue full")
	}
}

// Stats returns a snapshot of the counters
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to end
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit dispatcher drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.write(event)
	}
}

func (d *Dispatcher) write(event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.WriteTimeout)
	defer cancel()

	if err := d.sink.Write(ctx, event); err != nil {
		d.failed.Add(1)
		log.Printf("ERROR: Audit event %s dropped by sink: %v", event.Action, err)
		d.maybeAlert(fmt.Sprintf("audit sink failing: %s (%v)", event.Action, err))
		return
	}
	d.delivered.Add(1)
}

func (d *Dispatcher) drop(event domain.AuditEvent, reason string) {
	d.dropped.Add(1)
	log.Printf("[WARN] Audit event %s dropped: %s", event.Action, reason)
}

func (d *Dispatcher) maybeAlert(message string) {
	if d.alerter == nil {
		return
	}

	d.mu.Lock()
	now := time.Now()
	if now.Sub(d.lastAlert) < d.opts.AlertInterval {
		d.mu.Unlock()
		return
	}
	d.lastAlert = now
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.WriteTimeout)
	defer cancel()
	if err := d.alerter.Alert(ctx, message); err != nil {
		log.Printf("[WARN] Failed to send audit alert: %v", err)
	}
}
