// Package lock provides keyed mutual exclusion for multi-step workflows.
//
// Keyed serializes callers inside one process. Redis serializes callers
// across processes sharing a Redis instance.
package lock

import "errors"

var (
	// ErrTimeout is returned when a key could not be acquired in time
	ErrTimeout = errors.New("lock: timed out waiting for key")
	// ErrEmptyKey is returned for an empty lock key
	ErrEmptyKey = errors.New("lock: empty key")
)
