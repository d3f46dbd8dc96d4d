package entities

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// HealthyLabel is the classifier label for a disease-free leaf.
const HealthyLabel = "normal"

// DiseaseLabels is the closed classifier vocabulary, in training order.
var DiseaseLabels = []string{
	"bacterial_leaf_blight",
	"bacterial_leaf_streak",
	"bacterial_panicle_blight",
	"blast",
	"brown_spot",
	"dead_heart",
	"downy_mildew",
	"hispa",
	HealthyLabel,
	"tungro",
}

var knownDiseases = func() map[string]struct{} {
	m := make(map[string]struct{}, len(DiseaseLabels))
	for _, label := range DiseaseLabels {
		m[label] = struct{}{}
	}
	return m
}()

// ErrMalformedPredictionSequence is returned when a classifier's ranked
// predictions break the rank/confidence contract.
var ErrMalformedPredictionSequence = errors.New("malformed prediction sequence")

// ErrUploadRejected is returned when an uploaded image fails intake checks.
var ErrUploadRejected = errors.New("upload rejected")

// IsKnownDisease reports whether id belongs to the classifier vocabulary.
func IsKnownDisease(id string) bool {
	_, ok := knownDiseases[id]
	return ok
}

// HealthStatus is derived from a disease label.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDiseased HealthStatus = "diseased"
)

// HealthStatusFor returns healthy iff disease is the healthy label.
func HealthStatusFor(disease string) HealthStatus {
	if disease == HealthyLabel {
		return HealthStatusHealthy
	}
	return HealthStatusDiseased
}

// Prediction is one ranked classifier guess.
type Prediction struct {
	Rank         int          `json:"rank"`
	Disease      string       `json:"disease"`
	Confidence   float64      `json:"confidence"`
	HealthStatus HealthStatus `json:"health_status"`
}

// PredictionResult is the assembled response for one image.
type PredictionResult struct {
	TopPrediction string           `json:"top_prediction"`
	Confidence    float64          `json:"confidence"`
	HealthStatus  HealthStatus     `json:"health_status"`
	Predictions   []Prediction     `json:"predictions"`
	Treatments    *TreatmentRecord `json:"treatments,omitempty"`
}

// Severity returns the display severity bucket of the result.
func (r *PredictionResult) Severity() SeverityBucket {
	return SeverityFor(r.HealthStatus, r.Confidence)
}

// ClassifierOutput is the validated object emitted by a classifier.
type ClassifierOutput struct {
	TopPrediction string       `json:"top_prediction"`
	Confidence    float64      `json:"confidence"`
	HealthStatus  HealthStatus `json:"health_status"`
	Predictions   []Prediction `json:"predictions"`
	ImageName     string       `json:"image_name,omitempty"`
}

// DiseaseDisplayName formats an identifier for display: separators become
// spaces and each word is title-cased. The identifier itself is untouched.
func DiseaseDisplayName(disease string) string {
	words := strings.FieldsFunc(disease, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + w[size:]
	}
	return strings.Join(words, " ")
}

// TimestampLayout is the response timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
