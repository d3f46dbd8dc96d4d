package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

var (
	// ErrClassifierOutputEmpty is returned when the classifier produced no output.
	ErrClassifierOutputEmpty = errors.New("classifier output empty")

	// ErrClassifierOutputInvalid is returned when the output holds no
	// parseable JSON object or the object fails schema validation.
	ErrClassifierOutputInvalid = errors.New("classifier output invalid")

	// ErrClassifierUnavailable is returned when the classifier could not be
	// started or did not finish in time.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// Classifier turns an image file into ranked disease predictions.
type Classifier interface {
	// Classify blocks until the classifier finishes. imagePath must point
	// to an already validated image.
	Classify(ctx context.Context, imagePath string) (*entities.ClassifierOutput, error)

	// Name identifies the backend ("process", "onnx").
	Name() string
}
