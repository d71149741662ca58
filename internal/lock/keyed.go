package lock

import (
	"context"
	"sync"
)

// Keyed is an in-process lock table keyed by string
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// NewKeyed creates an empty lock table
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*keyedEntry)}
}

// Acquire blocks until key is free or ctx is done
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			k.unref(key, entry)
		})
	}, nil
}

// unref drops the entry once no caller holds or waits on it
func (k *Keyed) unref(key string, entry *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry.refs--
	if entry.refs == 0 && k.locks[key] == entry {
		delete(k.locks, key)
	}
}

// Len returns the number of keys currently held or awaited
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
