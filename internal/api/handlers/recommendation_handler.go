package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// Recommender produces advisory text. Recommend never fails.
type Recommender interface {
	Recommend(ctx context.Context, req services.RecommendationRequest) entities.Recommendation
	Fallback(req services.RecommendationRequest) string
}

// RecommendationHandler serves advisory text for a prediction.
type RecommendationHandler struct {
	recommender Recommender
	limiter     *RateLimiter
}

// NewRecommendationHandler creates a new recommendation handler. Clients
// over the limiter's quota get template text instead of generated text;
// limiter may be nil.
func NewRecommendationHandler(recommender Recommender, limiter *RateLimiter) *RecommendationHandler {
	return &RecommendationHandler{recommender: recommender, limiter: limiter}
}

type recommendationRequest struct {
	TopPrediction string                    `json:"top_prediction"`
	Confidence    *float64                  `json:"confidence"`
	HealthStatus  string                    `json:"health_status"`
	Treatments    *entities.TreatmentRecord `json:"treatments"`
	Language      string                    `json:"language"`
}

// Recommend handles POST /api/recommendations
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var payload recommendationRequest
	if err := decodeJSON(r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.TopPrediction = strings.TrimSpace(payload.TopPrediction)
	if payload.TopPrediction == "" {
		respondWithError(w, http.StatusBadRequest, "top_prediction is required")
		return
	}
	if !entities.IsKnownDisease(payload.TopPrediction) {
		respondWithError(w, http.StatusBadRequest, "top_prediction is not a known disease")
		return
	}
	if payload.Confidence == nil || *payload.Confidence < 0 || *payload.Confidence > 1 {
		respondWithError(w, http.StatusBadRequest, "confidence must be between 0 and 1")
		return
	}

	status := entities.HealthStatusFor(payload.TopPrediction)
	req := services.RecommendationRequest{
		Disease:    payload.TopPrediction,
		Severity:   entities.SeverityFor(status, *payload.Confidence),
		Confidence: *payload.Confidence,
		Treatment:  payload.Treatments,
		Language:   entities.ParseLanguage(payload.Language),
	}

	if !h.limiter.Allow(r.Context(), clientIP(r)) {
		observability.LoggerFromContext(r.Context()).Info().
			Str("client", clientIP(r)).
			Msg("recommendation quota exceeded, serving template text")
		respondWithJSON(w, http.StatusOK, entities.Recommendation{
			Text:     h.recommender.Fallback(req),
			Source:   entities.RecommendationSourceFallback,
			Severity: req.Severity,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, h.recommender.Recommend(r.Context(), req))
}
