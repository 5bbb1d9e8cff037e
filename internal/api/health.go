package api

import (
	"net/http"
	"time"

	"github.com/leaflove/care-service/internal/api/respond"
)

// HealthReporter is satisfied by health.ServiceHealthChecker.
type HealthReporter interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	rep HealthReporter
}

// NewHealthHandler creates a new health handler. A nil reporter is always unhealthy.
func NewHealthHandler(rep HealthReporter) *HealthHandler { return &HealthHandler{rep: rep} }

// CheckHealth handles GET /api/health
// Returns 200 when healthy and 503 otherwise; the body lists component status.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "unhealthy", http.StatusServiceUnavailable
	var components map[string]bool
	if h.rep != nil {
		if h.rep.IsHealthy() {
			status, code = "healthy", http.StatusOK
		}
		components = h.rep.Components()
	}
	respond.WriteJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
