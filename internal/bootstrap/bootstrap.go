// Package bootstrap builds the service graph shared by the HTTP server and
// the command-line client.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zatekoja/mypadicare/internal/adapters/classifier"
	"github.com/zatekoja/mypadicare/internal/adapters/treatments"
	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	"github.com/zatekoja/mypadicare/internal/presentation"
	"github.com/zatekoja/mypadicare/pkg/config"
)

// App holds the constructed services.
type App struct {
	Config          *config.Config
	Metrics         *observability.Metrics
	Classifier      providers.Classifier
	Treatments      *treatments.FileRepository
	Resolver        *services.TreatmentResolver
	Predictions     *services.PredictionService
	Recommendations *services.RecommendationService
	Status          *services.StatusService
	Renderer        *presentation.Renderer

	closers []func() error
}

// New wires every service from cfg. metrics may be nil. The generator is
// optional: without an API key recommendations come from templates only.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*App, error) {
	logger := observability.LoggerFromContext(ctx)
	app := &App{Config: cfg, Metrics: metrics}

	clf, status, err := newClassifier(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	app.Classifier = clf
	if closer, ok := clf.(interface{ Close() }); ok {
		app.closers = append(app.closers, func() error { closer.Close(); return nil })
	}

	repo, err := treatments.NewFileRepository(cfg.Treatments.Dir, cfg.Treatments.CacheSize, metrics)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Treatments = repo
	app.Resolver = services.NewTreatmentResolver(repo)

	app.Predictions = services.NewPredictionService(
		clf,
		app.Resolver,
		services.ServerUploadPolicy(cfg.Upload.MaxBytes),
		cfg.Upload.Dir,
		metrics,
	)

	var generator providers.TextGenerator
	if cfg.Gemini.APIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY is not set; recommendations use templates only")
	} else if client, err := gemini.NewClient(ctx, &cfg.Gemini); err != nil {
		logger.Warn().Err(err).Msg("failed to initialize Gemini client; recommendations use templates only")
	} else {
		generator = client
	}

	app.Recommendations, err = services.NewRecommendationService(generator, recommendationConfig(cfg.Gemini), metrics)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Status = services.NewStatusService(status, repo)

	catalog, err := presentation.NewCatalog()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Renderer = presentation.NewRenderer(catalog)

	return app, nil
}

// Close releases classifier resources.
func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newClassifier(cfg config.ClassifierConfig) (providers.Classifier, services.StatusConfig, error) {
	switch cfg.Backend {
	case "onnx":
		adapter, err := classifier.NewOnnxAdapter(classifier.OnnxConfig{
			ModelPath:    cfg.OnnxModelPath,
			MetadataPath: cfg.OnnxMetadataPath,
			LibraryPath:  cfg.OnnxLibraryPath,
			TopK:         cfg.TopK,
		})
		if err != nil {
			return nil, services.StatusConfig{}, fmt.Errorf("failed to load ONNX classifier: %w", err)
		}
		return adapter, services.StatusConfig{
			Backend:    adapter.Name(),
			ModelPath:  cfg.OnnxModelPath,
			ScriptPath: cfg.OnnxMetadataPath,
		}, nil

	case "process", "":
		adapter := classifier.NewProcessAdapter(classifier.ProcessConfig{
			Command: cfg.Command,
			Args:    []string{cfg.Script},
			WorkDir: cfg.WorkDir,
			Timeout: cfg.Timeout,
		})
		return adapter, services.StatusConfig{
			Backend:    adapter.Name(),
			ModelPath:  inDir(cfg.WorkDir, cfg.ModelPath),
			ScriptPath: inDir(cfg.WorkDir, cfg.Script),
		}, nil

	default:
		return nil, services.StatusConfig{}, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

func inDir(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func recommendationConfig(cfg config.GeminiConfig) services.RecommendationConfig {
	rc := services.DefaultRecommendationConfig()
	rc.Options.Temperature = cfg.Temperature
	rc.Options.TopP = cfg.TopP
	rc.Options.TopK = cfg.TopK
	rc.Options.MaxOutputTokens = cfg.MaxOutputTokens
	if cfg.MaxAttempts > 0 {
		rc.Retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Timeout > 0 {
		// leave room for one backoff between attempts
		rc.Retry.MaxTotalTimeout = time.Duration(rc.Retry.MaxAttempts)*cfg.Timeout + rc.Retry.MaxDelay
	}
	return rc
}
