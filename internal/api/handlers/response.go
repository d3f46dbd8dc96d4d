package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// statusForError maps an application error to its HTTP status.
func statusForError(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeExternal:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the user-facing message carried by err.
func messageForError(err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return "Internal server error"
}

type failureEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func respondWithFailure(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, failureEnvelope{
		Success:   false,
		Error:     message,
		Timestamp: entities.FormatTimestamp(time.Now()),
	})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes)).Decode(v)
}

const maxJSONBodyBytes = 1 << 20
