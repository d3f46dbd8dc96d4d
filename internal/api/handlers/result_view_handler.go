package handlers

import (
	"net/http"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/presentation"
)

// ResultViewHandler renders assembled results for display.
type ResultViewHandler struct {
	renderer *presentation.Renderer
}

// NewResultViewHandler creates a new result view handler
func NewResultViewHandler(renderer *presentation.Renderer) *ResultViewHandler {
	return &ResultViewHandler{renderer: renderer}
}

type resultViewRequest struct {
	Result         *entities.PredictionResult `json:"result"`
	Language       string                     `json:"language"`
	Recommendation *entities.Recommendation   `json:"recommendation"`
}

// RenderResult handles POST /api/results/view
func (h *ResultViewHandler) RenderResult(w http.ResponseWriter, r *http.Request) {
	var payload resultViewRequest
	if err := decodeJSON(r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Result == nil || payload.Result.TopPrediction == "" {
		respondWithError(w, http.StatusBadRequest, "result is required")
		return
	}
	if payload.Result.Confidence < 0 || payload.Result.Confidence > 1 {
		respondWithError(w, http.StatusBadRequest, "confidence must be between 0 and 1")
		return
	}
	if err := services.ValidateResult(payload.Result); err != nil {
		respondWithError(w, http.StatusBadRequest, "predictions must be ranked 1..n with non-increasing confidence and agree with top_prediction")
		return
	}

	result := *payload.Result
	result.HealthStatus = entities.HealthStatusFor(result.TopPrediction)

	session := presentation.NewSession(payload.Language)
	respondWithJSON(w, http.StatusOK, h.renderer.Render(session, &result, payload.Recommendation))
}
