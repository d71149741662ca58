package utils

import (
	"sync"
	"time"
)

// DefaultTimezone is used for audit timestamps and alert messages
const DefaultTimezone = "Asia/Kolkata"

var (
	locMu    sync.RWMutex
	localLoc *time.Location
)

func init() {
	if err := SetLocation(DefaultTimezone); err != nil {
		// Fallback to UTC if timezone data is missing
		// In production docker, ensure tzdata is installed
		localLoc = time.UTC
	}
}

// SetLocation switches the business timezone. An empty name keeps the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}

	locMu.Lock()
	localLoc = loc
	locMu.Unlock()
	return nil
}

// GetLocation returns the business *time.Location
func GetLocation() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return localLoc
}

// GetLocalTime returns current time in the business timezone
func GetLocalTime() time.Time {
	return time.Now().In(GetLocation())
}

// FormatLocal renders t in the business timezone
func FormatLocal(t time.Time) string {
	return t.In(GetLocation()).Format("2006-01-02 15:04:05")
}
