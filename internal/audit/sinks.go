package audit

import (
	"context"
	"errors"

	"copydesk/internal/domain"
)

// RepositorySink writes events to the admin_logs table
type RepositorySink struct {
	repo domain.AuditRepository
}

// NewRepositorySink wraps an AuditRepository as a Sink
func NewRepositorySink(repo domain.AuditRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Write appends the event
func (s *RepositorySink) Write(ctx context.Context, event domain.AuditEvent) error {
	return s.repo.Append(ctx, event)
}

// MultiSink writes every event to all sinks and joins their errors
type MultiSink []Sink

// Write fans the event out to every sink
func (m MultiSink) Write(ctx context.Context, event domain.AuditEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
