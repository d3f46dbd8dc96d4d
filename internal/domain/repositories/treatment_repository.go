package repositories

import (
	"context"
	"errors"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// ErrDatasetUnavailable is returned when a language dataset is missing or
// cannot be parsed.
var ErrDatasetUnavailable = errors.New("treatment dataset unavailable")

// TreatmentRepository loads the static treatment dataset for one language.
// Returned datasets are shared and must not be modified.
type TreatmentRepository interface {
	Load(ctx context.Context, lang entities.Language) (entities.TreatmentDataset, error)
}
