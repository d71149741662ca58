package domain

import "context"

// Locker serializes multi-step sequences that share a natural key
type Locker interface {
	// Acquire blocks until the key is held or ctx is done. The returned
	// function releases the key.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// AuditRecorder accepts audit events without blocking the caller.
// Delivery failures are never reported back.
type AuditRecorder interface {
	Record(event AuditEvent)
}

// Alerter notifies operators about conditions that need manual attention
type Alerter interface {
	Alert(ctx context.Context, message string) error
}
