package services

import (
	"context"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/repositories"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// TreatmentResolver maps a disease and language to a treatment record,
// falling back to the default language and then to the reserved default
// entry. Absence is a valid outcome, not an error.
type TreatmentResolver struct {
	repo repositories.TreatmentRepository
}

// NewTreatmentResolver creates a new treatment resolver
func NewTreatmentResolver(repo repositories.TreatmentRepository) *TreatmentResolver {
	return &TreatmentResolver{repo: repo}
}

// Resolve looks up, in order: the disease in the requested language, the
// disease in the default language, the default entry in the requested
// language, the default entry in the default language. A requested
// dataset that cannot be loaded is replaced by the default-language one.
// The returned record is a copy.
func (r *TreatmentResolver) Resolve(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool) {
	logger := observability.LoggerFromContext(ctx)

	primary, err := r.repo.Load(ctx, lang)
	if err != nil {
		logger.Warn().Err(err).Str("language", string(lang)).Msg("treatment dataset unavailable")
		if lang.IsDefault() {
			return nil, false
		}
		lang = entities.DefaultLanguage
		if primary, err = r.repo.Load(ctx, lang); err != nil {
			logger.Warn().Err(err).Str("language", string(lang)).Msg("default treatment dataset unavailable")
			return nil, false
		}
	}

	if record, ok := primary[disease]; ok {
		return record.Clone(), true
	}

	var fallback entities.TreatmentDataset
	if !lang.IsDefault() {
		if fallback, err = r.repo.Load(ctx, entities.DefaultLanguage); err != nil {
			logger.Warn().Err(err).Msg("default treatment dataset unavailable")
		}
		if record, ok := fallback[disease]; ok {
			logger.Debug().Str("disease", disease).Str("language", string(lang)).Msg("treatment resolved from default language")
			return record.Clone(), true
		}
	}

	if record, ok := primary[entities.DefaultTreatmentKey]; ok {
		return record.Clone(), true
	}
	if record, ok := fallback[entities.DefaultTreatmentKey]; ok {
		return record.Clone(), true
	}
	return nil, false
}

// Lookup returns the record stored for exactly this disease, trying the
// requested language and then the default language. The default entry is
// never substituted.
func (r *TreatmentResolver) Lookup(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool) {
	if disease == "" || disease == entities.DefaultTreatmentKey {
		return nil, false
	}

	langs := []entities.Language{lang}
	if !lang.IsDefault() {
		langs = append(langs, entities.DefaultLanguage)
	}
	for _, l := range langs {
		dataset, err := r.repo.Load(ctx, l)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("language", string(l)).Msg("treatment dataset unavailable")
			continue
		}
		if record, ok := dataset[disease]; ok {
			return record.Clone(), true
		}
	}
	return nil, false
}
