package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// TreatmentFinder returns the record stored for exactly one disease.
type TreatmentFinder interface {
	Lookup(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool)
}

// TreatmentHandler handles treatment lookups.
type TreatmentHandler struct {
	finder TreatmentFinder
}

// NewTreatmentHandler creates a new treatment handler
func NewTreatmentHandler(finder TreatmentFinder) *TreatmentHandler {
	return &TreatmentHandler{finder: finder}
}

// GetTreatment handles GET /api/treatments/{disease}
func (h *TreatmentHandler) GetTreatment(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, r.PathValue("disease"), entities.ParseLanguage(r.URL.Query().Get("lang")))
}

func (h *TreatmentHandler) respond(w http.ResponseWriter, r *http.Request, disease string, lang entities.Language) {
	if disease == "" {
		respondWithError(w, http.StatusBadRequest, "disease is required")
		return
	}

	record, ok := h.finder.Lookup(r.Context(), disease, lang)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Treatment not found for disease: "+disease)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}
