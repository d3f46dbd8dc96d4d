package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// StatusReporter builds the health report.
type StatusReporter interface {
	Status(ctx context.Context) entities.SystemStatus
}

// HealthHandler serves the informational health report.
type HealthHandler struct {
	reporter StatusReporter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(reporter StatusReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// GetHealth handles GET /api/health. It always answers 200; the payload
// says what is missing.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.reporter.Status(r.Context()))
}
