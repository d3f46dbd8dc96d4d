package services

import (
	"fmt"
	"math"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// ValidatePredictions checks the ranked-sequence contract: non-empty, ranks
// exactly 1..n in order, confidences in [0,1] and non-increasing. The
// sequence is never re-sorted.
func ValidatePredictions(predictions []entities.Prediction) error {
	if len(predictions) == 0 {
		return fmt.Errorf("%w: no predictions", entities.ErrMalformedPredictionSequence)
	}
	for i, p := range predictions {
		if p.Rank != i+1 {
			return fmt.Errorf("%w: position %d has rank %d", entities.ErrMalformedPredictionSequence, i+1, p.Rank)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("%w: rank %d confidence %v outside [0,1]", entities.ErrMalformedPredictionSequence, p.Rank, p.Confidence)
		}
		if i > 0 && p.Confidence > predictions[i-1].Confidence {
			return fmt.Errorf("%w: rank %d confidence %v exceeds rank %d confidence %v",
				entities.ErrMalformedPredictionSequence, p.Rank, p.Confidence, i, predictions[i-1].Confidence)
		}
	}
	return nil
}

// ValidateOutput checks that the classifier's top-level fields agree with
// its rank-1 prediction.
func ValidateOutput(output *entities.ClassifierOutput) error {
	if err := ValidatePredictions(output.Predictions); err != nil {
		return err
	}
	if top := output.Predictions[0].Disease; output.TopPrediction != top {
		return fmt.Errorf("%w: top_prediction %q differs from rank 1 %q", entities.ErrMalformedPredictionSequence, output.TopPrediction, top)
	}
	return nil
}

// confidenceTolerance absorbs float formatting differences between the
// top-level confidence and the rank-1 entry.
const confidenceTolerance = 1e-6

// ValidateResult checks a client-supplied result: the ranked sequence
// contract, plus top_prediction and confidence matching rank 1.
func ValidateResult(result *entities.PredictionResult) error {
	if err := ValidatePredictions(result.Predictions); err != nil {
		return err
	}
	top := result.Predictions[0]
	if result.TopPrediction != top.Disease {
		return fmt.Errorf("%w: top_prediction %q differs from rank 1 %q", entities.ErrMalformedPredictionSequence, result.TopPrediction, top.Disease)
	}
	if math.Abs(result.Confidence-top.Confidence) > confidenceTolerance {
		return fmt.Errorf("%w: confidence %v differs from rank 1 confidence %v", entities.ErrMalformedPredictionSequence, result.Confidence, top.Confidence)
	}
	return nil
}

// Assemble builds the immutable result for one image. Top-level fields come
// from rank 1; health status is derived from labels. treatment is attached
// only for a diseased result.
func Assemble(predictions []entities.Prediction, treatment *entities.TreatmentRecord) (*entities.PredictionResult, error) {
	if err := ValidatePredictions(predictions); err != nil {
		return nil, err
	}

	ranked := make([]entities.Prediction, len(predictions))
	for i, p := range predictions {
		p.HealthStatus = entities.HealthStatusFor(p.Disease)
		ranked[i] = p
	}

	top := ranked[0]
	result := &entities.PredictionResult{
		TopPrediction: top.Disease,
		Confidence:    top.Confidence,
		HealthStatus:  top.HealthStatus,
		Predictions:   ranked,
	}
	if result.HealthStatus == entities.HealthStatusDiseased {
		result.Treatments = treatment.Clone()
	}
	return result, nil
}
