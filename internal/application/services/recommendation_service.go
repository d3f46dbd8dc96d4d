package services

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	"github.com/zatekoja/mypadicare/pkg/retry"
)

//go:embed fallback_templates.yaml
var fallbackTemplatesYAML []byte

// RecommendationRequest carries what the advisory text is built from.
type RecommendationRequest struct {
	Disease    string
	Severity   entities.SeverityBucket
	Confidence float64
	Treatment  *entities.TreatmentRecord
	Language   entities.Language
}

// RecommendationConfig tunes generation and retries.
type RecommendationConfig struct {
	Options providers.GenerationOptions
	Retry   retry.Config
}

// DefaultRecommendationConfig returns the sampling configuration used for
// short advisory text.
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		Options: providers.GenerationOptions{
			Temperature:     0.5,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 150,
		},
		Retry: retry.Config{
			MaxAttempts:   2,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2.0,
		},
	}
}

// RecommendationService produces advisory text for a result. Generated text
// is preferred; every failure falls back to rule-based templates, so
// Recommend never fails.
type RecommendationService struct {
	generator providers.TextGenerator
	cfg       RecommendationConfig
	templates *fallbackTemplates
	metrics   *observability.Metrics
}

// NewRecommendationService creates a new recommendation service. generator
// may be nil, in which case only fallback text is produced.
func NewRecommendationService(generator providers.TextGenerator, cfg RecommendationConfig, metrics *observability.Metrics) (*RecommendationService, error) {
	templates, err := parseFallbackTemplates(fallbackTemplatesYAML)
	if err != nil {
		return nil, err
	}
	cfg.Retry.Retryable = func(err error) bool {
		return errors.Is(err, providers.ErrGenerationFailed)
	}
	return &RecommendationService{
		generator: generator,
		cfg:       cfg,
		templates: templates,
		metrics:   metrics,
	}, nil
}

// Recommend returns advisory text. Healthy results are answered from the
// templates without calling the generator.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendationRequest) entities.Recommendation {
	if !req.Severity.Valid() {
		req.Severity = entities.SeverityFor(entities.HealthStatusFor(req.Disease), req.Confidence)
	}
	req.Language = entities.ParseLanguage(string(req.Language))

	logger := observability.LoggerFromContext(ctx)
	rec := entities.Recommendation{Severity: req.Severity}

	if s.generator != nil && req.Severity != entities.SeverityHealthy {
		text, err := s.generate(ctx, req)
		if err == nil {
			rec.Text, rec.Source = text, entities.RecommendationSourceGemini
			observability.RecordRecommendation(ctx, s.metrics, string(rec.Source))
			return rec
		}
		logger.Warn().Err(err).Str("disease", req.Disease).Msg("generated recommendation unavailable, using fallback")
	}

	rec.Text, rec.Source = s.Fallback(req), entities.RecommendationSourceFallback
	observability.RecordRecommendation(ctx, s.metrics, string(rec.Source))
	return rec
}

func (s *RecommendationService) generate(ctx context.Context, req RecommendationRequest) (string, error) {
	prompt := BuildRecommendationPrompt(req)
	logger := observability.LoggerFromContext(ctx)

	var text string
	err := retry.DoWithLog(ctx, s.cfg.Retry, "gemini", func() error {
		var err error
		text, err = s.generator.Generate(ctx, prompt, s.cfg.Options)
		return err
	}, func(attempt int, err error, next time.Duration) {
		logger.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("retrying recommendation")
	})
	if err != nil {
		return "", err
	}
	return sanitizeGenerated(text), nil
}

// sanitizeGenerated strips markdown emphasis the prompt asks the model to
// avoid.
func sanitizeGenerated(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}

// Fallback renders the canned template for (disease, severity), or the
// generic template when none exists. It always returns non-empty text.
func (s *RecommendationService) Fallback(req RecommendationRequest) string {
	data := fallbackData{
		Disease:  entities.DiseaseDisplayName(req.Disease),
		Severity: req.Severity.Label(),
	}
	if req.Treatment != nil {
		data.ExpectedRecovery = req.Treatment.ExpectedRecovery
	}

	tmpl := s.templates.generic
	if bySeverity, ok := s.templates.diseases[req.Disease]; ok {
		if t, ok := bySeverity[req.Severity]; ok {
			tmpl = t
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil || strings.TrimSpace(buf.String()) == "" {
		return fmt.Sprintf("%s severity %s detected. Consult your local agricultural extension officer for specialized advice.", data.Severity, data.Disease)
	}
	return strings.Join(strings.Fields(buf.String()), " ")
}

type fallbackData struct {
	Disease          string
	Severity         string
	ExpectedRecovery string
}

type fallbackTemplates struct {
	generic  *template.Template
	diseases map[string]map[entities.SeverityBucket]*template.Template
}

type fallbackTemplatesFile struct {
	Generic  string                       `yaml:"generic"`
	Diseases map[string]map[string]string `yaml:"diseases"`
}

func parseFallbackTemplates(raw []byte) (*fallbackTemplates, error) {
	var file fallbackTemplatesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fallback templates: %w", err)
	}
	if strings.TrimSpace(file.Generic) == "" {
		return nil, errors.New("fallback templates: generic template is required")
	}

	generic, err := template.New("generic").Parse(file.Generic)
	if err != nil {
		return nil, fmt.Errorf("fallback templates: generic: %w", err)
	}

	out := &fallbackTemplates{
		generic:  generic,
		diseases: make(map[string]map[entities.SeverityBucket]*template.Template, len(file.Diseases)),
	}
	for disease, bySeverity := range file.Diseases {
		if !entities.IsKnownDisease(disease) {
			return nil, fmt.Errorf("fallback templates: unknown disease %q", disease)
		}
		out.diseases[disease] = make(map[entities.SeverityBucket]*template.Template, len(bySeverity))
		for severity, text := range bySeverity {
			bucket := entities.SeverityBucket(severity)
			if !bucket.Valid() {
				return nil, fmt.Errorf("fallback templates: %s: unknown severity %q", disease, severity)
			}
			t, err := template.New(disease + "/" + severity).Parse(text)
			if err != nil {
				return nil, fmt.Errorf("fallback templates: %s/%s: %w", disease, severity, err)
			}
			out.diseases[disease][bucket] = t
		}
	}
	return out, nil
}
