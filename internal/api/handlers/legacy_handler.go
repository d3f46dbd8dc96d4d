package handlers

import (
	"net/http"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// LegacyHandler serves the single-endpoint API used by older web clients:
// one path multiplexed on method and query parameters.
type LegacyHandler struct {
	prediction *PredictionHandler
	treatment  *TreatmentHandler
	health     *HealthHandler
}

// NewLegacyHandler creates a new legacy handler
func NewLegacyHandler(prediction *PredictionHandler, treatment *TreatmentHandler, health *HealthHandler) *LegacyHandler {
	return &LegacyHandler{prediction: prediction, treatment: treatment, health: health}
}

// ServeHTTP handles /predict_api.php
func (h *LegacyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && query.Get("action") == "health":
		h.health.GetHealth(w, r)
	case r.Method == http.MethodGet && query.Has("treatment"):
		h.treatment.respond(w, r, query.Get("treatment"), entities.DefaultLanguage)
	case r.Method == http.MethodPost:
		h.prediction.Predict(w, r)
	default:
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
