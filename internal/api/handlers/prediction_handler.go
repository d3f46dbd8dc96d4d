package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// Predictor runs an upload through classification and assembly.
type Predictor interface {
	Predict(ctx context.Context, upload services.Upload, lang entities.Language) (*entities.PredictionResult, error)
	Policy() services.UploadPolicy
}

// PredictionHandler handles image uploads.
type PredictionHandler struct {
	predictor Predictor
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictor Predictor) *PredictionHandler {
	return &PredictionHandler{predictor: predictor}
}

type predictionResponse struct {
	Success bool `json:"success"`
	*entities.PredictionResult
	Timestamp string `json:"timestamp"`
}

// Predict handles POST /api/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFromContext(r.Context())
	policy := h.predictor.Policy()

	r.Body = http.MaxBytesReader(w, r.Body, policy.MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithFailure(w, http.StatusBadRequest, policy.TooLargeMessage())
			return
		}
		respondWithFailure(w, http.StatusBadRequest, "No image uploaded or upload error occurred")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithFailure(w, http.StatusBadRequest, "No image uploaded or upload error occurred")
		return
	}
	defer file.Close()

	lang := entities.ParseLanguage(r.FormValue("lang"))
	result, err := h.predictor.Predict(r.Context(), services.Upload{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, lang)
	if err != nil {
		status := statusForError(err)
		event := logger.Warn()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).Str("filename", header.Filename).Int("status", status).Msg("prediction failed")
		respondWithFailure(w, status, messageForError(err))
		return
	}

	respondWithJSON(w, http.StatusOK, predictionResponse{
		Success:          true,
		PredictionResult: result,
		Timestamp:        entities.FormatTimestamp(time.Now()),
	})
}

type uploadPolicyResponse struct {
	Server services.UploadPolicy `json:"server"`
	Client services.UploadPolicy `json:"client"`
}

// GetUploadPolicy handles GET /api/upload-policy
func (h *PredictionHandler) GetUploadPolicy(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, uploadPolicyResponse{
		Server: h.predictor.Policy(),
		Client: services.ClientUploadPolicy(),
	})
}
