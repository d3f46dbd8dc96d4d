package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
)

// Upload is one submitted image.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// TreatmentLookup resolves treatment records.
type TreatmentLookup interface {
	Resolve(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool)
}

// PredictionService runs one upload through intake, classification,
// treatment resolution and assembly.
type PredictionService struct {
	classifier providers.Classifier
	treatments TreatmentLookup
	policy     UploadPolicy
	uploadDir  string
	metrics    *observability.Metrics
}

// NewPredictionService creates a new prediction service
func NewPredictionService(
	classifier providers.Classifier,
	treatments TreatmentLookup,
	policy UploadPolicy,
	uploadDir string,
	metrics *observability.Metrics,
) *PredictionService {
	return &PredictionService{
		classifier: classifier,
		treatments: treatments,
		policy:     policy,
		uploadDir:  uploadDir,
		metrics:    metrics,
	}
}

// Policy returns the server upload policy
func (s *PredictionService) Policy() UploadPolicy {
	return s.policy
}

// Predict validates and stores the upload under a unique name, classifies
// it and assembles the result. The stored file is removed before Predict
// returns, whatever the outcome.
func (s *PredictionService) Predict(ctx context.Context, upload Upload, lang entities.Language) (_ *entities.PredictionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "PredictionService.Predict")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()
	observability.SetSpanAttributes(span,
		attribute.String("upload.extension", Extension(upload.Filename)),
		attribute.Int64("upload.size", upload.Size),
		attribute.String("language", string(lang)),
	)
	logger := observability.LoggerFromContext(ctx)

	if err := s.policy.Validate(upload.Filename, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}

	path, err := s.store(upload)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Error().Err(err).Str("path", path).Msg("failed to remove uploaded image")
		}
	}()

	start := time.Now()
	output, err := s.classify(ctx, path)
	if err != nil {
		return nil, classifierError(err)
	}

	if err := ValidateOutput(output); err != nil {
		logger.Error().Err(err).Msg("classifier broke the ranked prediction contract")
		return nil, apperrors.NewInternalError("Classifier returned an inconsistent prediction", err)
	}

	var treatment *entities.TreatmentRecord
	if entities.HealthStatusFor(output.TopPrediction) == entities.HealthStatusDiseased {
		if record, ok := s.treatments.Resolve(ctx, output.TopPrediction, lang); ok {
			treatment = record
		} else {
			logger.Info().Str("disease", output.TopPrediction).Msg("no treatment data found")
		}
	}

	result, err := Assemble(output.Predictions, treatment)
	if err != nil {
		return nil, apperrors.NewInternalError("Classifier returned an inconsistent prediction", err)
	}

	observability.SetSpanAttributes(span,
		attribute.String("prediction.top", result.TopPrediction),
		attribute.Float64("prediction.confidence", result.Confidence),
	)
	logger.Info().
		Str("top_prediction", result.TopPrediction).
		Float64("confidence", result.Confidence).
		Str("severity", string(result.Severity())).
		Dur("duration", time.Since(start)).
		Msg("prediction complete")
	return result, nil
}

func (s *PredictionService) classify(ctx context.Context, path string) (*entities.ClassifierOutput, error) {
	ctx, span := observability.StartSpan(ctx, "Classifier.Classify")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("classifier.backend", s.classifier.Name()))

	start := time.Now()
	output, err := s.classifier.Classify(ctx, path)
	observability.RecordClassification(ctx, s.metrics, s.classifier.Name(), time.Since(start), err)
	observability.RecordError(span, err)
	return output, err
}

// store copies the upload to a uniquely named file, enforcing the size
// limit on the bytes actually read.
func (s *PredictionService) store(upload Upload) (string, error) {
	if upload.Body == nil {
		return "", apperrors.NewValidationError("No image uploaded or upload error occurred", entities.ErrUploadRejected)
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", apperrors.NewInternalError("Failed to save uploaded file", err)
	}

	path := filepath.Join(s.uploadDir, fmt.Sprintf("paddy_%s.%s", uuid.NewString(), Extension(upload.Filename)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to save uploaded file", err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(upload.Body, s.policy.MaxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil || closeErr != nil:
		os.Remove(path)
		return "", apperrors.NewInternalError("Failed to save uploaded file", errors.Join(copyErr, closeErr))
	case written > s.policy.MaxBytes:
		os.Remove(path)
		return "", reject(s.policy.TooLargeMessage())
	case written == 0:
		os.Remove(path)
		return "", apperrors.NewValidationError("No image uploaded or upload error occurred", entities.ErrUploadRejected)
	}
	return path, nil
}

func classifierError(err error) error {
	switch {
	case errors.Is(err, entities.ErrUploadRejected):
		return apperrors.NewValidationError("Invalid file type. Please upload an image file.", err)
	case errors.Is(err, providers.ErrClassifierUnavailable):
		return apperrors.NewExternalError("Image analysis is currently unavailable. Please try again.", err)
	default:
		return apperrors.NewExternalError("Failed to analyze image. Please try a different photo.", err)
	}
}
