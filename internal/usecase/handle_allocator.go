package usecase

import (
	"context"
	"strconv"
	"strings"

	"copydesk/internal/domain"
)

// NextHandleIndex returns one more than the largest slot number found in
// handles. Handles that do not match mt5_path_<N> are ignored.
func NextHandleIndex(handles []string) int {
	highest := 0
	for _, handle := range handles {
		if !strings.HasPrefix(handle, domain.ResourceHandlePrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(handle, domain.ResourceHandlePrefix))
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// HandleAllocator computes the next resource handle from the stored ones.
// Two concurrent callers can compute the same value; the unique constraint on
// the handle column rejects the second insert and the provisioning workflow
// retries.
type HandleAllocator struct {
	slaveRepo domain.SlaveRepository
}

// NewHandleAllocator creates a new HandleAllocator
func NewHandleAllocator(slaveRepo domain.SlaveRepository) *HandleAllocator {
	return &HandleAllocator{slaveRepo: slaveRepo}
}

// Next returns the next free handle
func (a *HandleAllocator) Next(ctx context.Context) (string, error) {
	handles, err := a.slaveRepo.ListHandles(ctx)
	if err != nil {
		return "", domain.WrapError(domain.KindPersistence, domain.CodeStoreFailed,
			"failed to read resource handles", err)
	}
	return domain.FormatResourceHandle(NextHandleIndex(handles)), nil
}
