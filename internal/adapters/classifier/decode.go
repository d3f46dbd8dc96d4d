package classifier

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

// wireOutput mirrors the classifier's JSON object. Pointer fields tell a
// missing key apart from a zero value.
type wireOutput struct {
	Success       *bool            `json:"success"`
	Error         string           `json:"error"`
	TopPrediction *string          `json:"top_prediction"`
	Confidence    *float64         `json:"confidence"`
	HealthStatus  *string          `json:"health_status"`
	Predictions   []wirePrediction `json:"predictions"`
	ImageName     string           `json:"image_name"`
}

type wirePrediction struct {
	Rank         *int     `json:"rank"`
	Disease      *string  `json:"disease"`
	Confidence   *float64 `json:"confidence"`
	HealthStatus *string  `json:"health_status"`
}

// ReportedError is a failure the classifier itself reported with
// {"success": false, "error": "..."}.
type ReportedError struct {
	Message string
}

func (e *ReportedError) Error() string {
	if e.Message == "" {
		return "classifier reported failure"
	}
	return "classifier reported failure: " + e.Message
}

func (e *ReportedError) Unwrap() error {
	return providers.ErrClassifierOutputInvalid
}

// DecodeOutput extracts and validates the classifier's JSON object.
// It checks shape only: rank ordering is the result assembler's concern.
func DecodeOutput(out []byte) (*entities.ClassifierOutput, error) {
	span, err := ExtractJSONObject(out)
	if err != nil {
		return nil, err
	}

	var wire wireOutput
	if err := json.Unmarshal(span, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrClassifierOutputInvalid, err)
	}

	if wire.Success != nil && !*wire.Success {
		return nil, &ReportedError{Message: wire.Error}
	}

	if err := wire.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrClassifierOutputInvalid, err)
	}

	output := &entities.ClassifierOutput{
		TopPrediction: *wire.TopPrediction,
		Confidence:    *wire.Confidence,
		HealthStatus:  entities.HealthStatus(*wire.HealthStatus),
		Predictions:   make([]entities.Prediction, 0, len(wire.Predictions)),
		ImageName:     wire.ImageName,
	}
	for _, p := range wire.Predictions {
		output.Predictions = append(output.Predictions, entities.Prediction{
			Rank:         *p.Rank,
			Disease:      *p.Disease,
			Confidence:   *p.Confidence,
			HealthStatus: entities.HealthStatus(*p.HealthStatus),
		})
	}
	return output, nil
}

func (w *wireOutput) validate() error {
	switch {
	case w.TopPrediction == nil:
		return errors.New("missing top_prediction")
	case w.Confidence == nil:
		return errors.New("missing confidence")
	case w.HealthStatus == nil:
		return errors.New("missing health_status")
	case len(w.Predictions) == 0:
		return errors.New("missing predictions")
	}
	if !entities.IsKnownDisease(*w.TopPrediction) {
		return fmt.Errorf("unknown disease %q", *w.TopPrediction)
	}
	if err := checkConfidence(*w.Confidence); err != nil {
		return err
	}
	if err := checkHealthStatus(*w.HealthStatus); err != nil {
		return err
	}

	for i, p := range w.Predictions {
		switch {
		case p.Rank == nil:
			return fmt.Errorf("predictions[%d]: missing rank", i)
		case p.Disease == nil:
			return fmt.Errorf("predictions[%d]: missing disease", i)
		case p.Confidence == nil:
			return fmt.Errorf("predictions[%d]: missing confidence", i)
		case p.HealthStatus == nil:
			return fmt.Errorf("predictions[%d]: missing health_status", i)
		}
		if !entities.IsKnownDisease(*p.Disease) {
			return fmt.Errorf("predictions[%d]: unknown disease %q", i, *p.Disease)
		}
		if err := checkConfidence(*p.Confidence); err != nil {
			return fmt.Errorf("predictions[%d]: %w", i, err)
		}
		if err := checkHealthStatus(*p.HealthStatus); err != nil {
			return fmt.Errorf("predictions[%d]: %w", i, err)
		}
	}
	return nil
}

func checkConfidence(c float64) error {
	if c < 0 || c > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", c)
	}
	return nil
}

func checkHealthStatus(s string) error {
	switch entities.HealthStatus(s) {
	case entities.HealthStatusHealthy, entities.HealthStatusDiseased:
		return nil
	}
	return fmt.Errorf("unknown health_status %q", s)
}
