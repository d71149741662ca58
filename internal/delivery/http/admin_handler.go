package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"copydesk/internal/audit"
	"copydesk/internal/infra"
)

// AuditStats exposes audit delivery counters
type AuditStats interface {
	Stats() audit.Stats
}

// AdminHandler serves health and dashboard statistics
type AdminHandler struct {
	db     *pgxpool.Pool
	checks infra.HealthChecks
	audit  AuditStats
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *pgxpool.Pool, checks infra.HealthChecks, audit AuditStats) *AdminHandler {
	return &AdminHandler{
		db:     db,
		checks: checks,
		audit:  audit,
	}
}

// Health reports dependency status
// GET /health
func (h *AdminHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	services, healthy := h.checks.Run(ctx)
	body := map[string]interface{}{
		"status":    "healthy",
		"service":   "copydesk-api",
		"timestamp": time.Now().Format(time.RFC3339),
		"services":  services,
	}
	if !healthy {
		body["status"] = "degraded"
		return c.JSON(http.StatusServiceUnavailable, Response{Status: "error", Data: body})
	}

	return SuccessResponse(c, body)
}

// GetStatistics returns admin dashboard statistics
// GET /api/admin/statistics
func (h *AdminHandler) GetStatistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats := make(map[string]interface{})

	var totalMasters int
	if err := h.db.QueryRow(ctx, "SELECT COUNT(*) FROM master_accounts").Scan(&totalMasters); err == nil {
		stats["total_masters"] = totalMasters
	}

	var activeSlaves, inactiveSlaves int
	h.db.QueryRow(ctx, "SELECT COUNT(*) FROM slave_accounts WHERE status = 'active'").Scan(&activeSlaves)
	h.db.QueryRow(ctx, "SELECT COUNT(*) FROM slave_accounts WHERE status = 'inactive'").Scan(&inactiveSlaves)
	stats["slaves"] = map[string]interface{}{
		"active":   activeSlaves,
		"inactive": inactiveSlaves,
	}

	var groupedTraders int
	h.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE group_id IS NOT NULL").Scan(&groupedTraders)
	stats["traders_in_groups"] = groupedTraders

	var pendingIntents, failedIntents int
	h.db.QueryRow(ctx, "SELECT COUNT(*) FROM membership_intents WHERE status = 'pending'").Scan(&pendingIntents)
	h.db.QueryRow(ctx, "SELECT COUNT(*) FROM membership_intents WHERE status = 'failed'").Scan(&failedIntents)
	stats["membership_intents"] = map[string]interface{}{
		"pending": pendingIntents,
		"failed":  failedIntents,
	}

	if h.audit != nil {
		stats["audit"] = h.audit.Stats()
	}

	return SuccessResponse(c, stats)
}
