package treatments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/repositories"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

const cacheName = "treatments"

// DatasetFileName returns treatments.json for the default language and
// treatments_<lang>.json otherwise.
func DatasetFileName(lang entities.Language) string {
	if lang.IsDefault() {
		return "treatments.json"
	}
	return fmt.Sprintf("treatments_%s.json", lang)
}

// FileRepository reads treatment datasets from a directory of JSON files.
// Parsed datasets are kept in an LRU keyed by language; concurrent loads
// of the same language share one read.
type FileRepository struct {
	dir     string
	cache   *lru.Cache[entities.Language, entities.TreatmentDataset]
	group   singleflight.Group
	metrics *observability.Metrics
}

var _ repositories.TreatmentRepository = (*FileRepository)(nil)

// NewFileRepository creates a repository over dir. metrics may be nil.
func NewFileRepository(dir string, cacheSize int, metrics *observability.Metrics) (*FileRepository, error) {
	cache, err := lru.New[entities.Language, entities.TreatmentDataset](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create treatment cache: %w", err)
	}
	return &FileRepository{dir: dir, cache: cache, metrics: metrics}, nil
}

// Dir returns the dataset directory
func (r *FileRepository) Dir() string {
	return r.dir
}

// Path returns the dataset file for lang
func (r *FileRepository) Path(lang entities.Language) string {
	return filepath.Join(r.dir, DatasetFileName(lang))
}

// Exists reports whether the dataset file for lang is present.
func (r *FileRepository) Exists(lang entities.Language) bool {
	info, err := os.Stat(r.Path(lang))
	return err == nil && !info.IsDir()
}

// Load returns the dataset for lang. Failures are not cached.
func (r *FileRepository) Load(ctx context.Context, lang entities.Language) (entities.TreatmentDataset, error) {
	if dataset, ok := r.cache.Get(lang); ok {
		observability.RecordCacheHit(ctx, r.metrics, cacheName)
		return dataset, nil
	}
	observability.RecordCacheMiss(ctx, r.metrics, cacheName)

	v, err, _ := r.group.Do(string(lang), func() (any, error) {
		dataset, err := r.read(lang)
		if err != nil {
			return nil, err
		}
		r.cache.Add(lang, dataset)
		return dataset, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(entities.TreatmentDataset), nil
}

// Invalidate drops every cached dataset.
func (r *FileRepository) Invalidate() {
	r.cache.Purge()
}

func (r *FileRepository) read(lang entities.Language) (entities.TreatmentDataset, error) {
	path := r.Path(lang)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repositories.ErrDatasetUnavailable, path, err)
	}

	var dataset entities.TreatmentDataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repositories.ErrDatasetUnavailable, path, err)
	}
	if dataset == nil {
		return nil, fmt.Errorf("%w: %s: not a JSON object", repositories.ErrDatasetUnavailable, path)
	}
	return dataset, nil
}
