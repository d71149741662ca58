package infra

import (
	"context"
	"sort"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthChecks maps dependency names to their checks
type HealthChecks map[string]HealthCheck

// Run executes every check and returns per-dependency status and overall health
func (h HealthChecks) Run(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make(map[string]string, len(h))
	healthy := true
	for _, name := range names {
		if err := h[name](ctx); err != nil {
			statuses[name] = "degraded"
			healthy = false
			continue
		}
		statuses[name] = "online"
	}
	return statuses, healthy
}
