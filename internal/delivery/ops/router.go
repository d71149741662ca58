// Package ops serves the operator endpoints on a separate port.
package ops

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"copydesk/internal/infra"
)

// ReconcileTrigger starts a background reconcile pass
type ReconcileTrigger interface {
	Trigger() bool
}

// NewRouter builds the ops router
func NewRouter(checks infra.HealthChecks, trigger ReconcileTrigger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// Routes
	r.Get("/health", handleHealth(checks))
	r.Post("/reconcile/trigger", handleTriggerReconcile(trigger))

	return r
}

func handleHealth(checks infra.HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services, healthy := checks.Run(ctx)
		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		writeJSON(w, code, map[string]interface{}{
			"status":    status,
			"service":   "copydesk-ops",
			"services":  services,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func handleTriggerReconcile(trigger ReconcileTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !trigger.Trigger() {
			writeJSON(w, http.StatusConflict, map[string]string{
				"message": "Reconcile pass already running",
				"status":  "busy",
			})
			return
		}

		log.Println("Manual reconcile triggered via API")
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Reconcile triggered successfully",
			"status":  "processing",
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: Failed to write ops response: %v", err)
	}
}
