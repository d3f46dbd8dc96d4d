package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/mypadicare/internal/adapters/cache"
	"github.com/zatekoja/mypadicare/internal/adapters/events"
	"github.com/zatekoja/mypadicare/internal/adapters/treatments"
	"github.com/zatekoja/mypadicare/internal/api/handlers"
	"github.com/zatekoja/mypadicare/internal/api/middleware"
	"github.com/zatekoja/mypadicare/internal/api/routes"
	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/clients/redis"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
	"github.com/zatekoja/mypadicare/pkg/config"
	"github.com/zatekoja/mypadicare/pkg/secrets"
)

const (
	recommendationLimit  = 30
	recommendationWindow = time.Minute
)

// invalidators fans a dataset change out to every cache layer.
type invalidators []treatments.Invalidator

func (i invalidators) Invalidate() {
	for _, target := range i {
		target.Invalidate()
	}
}

func main() {
	// Credentials from Vault must be in the environment before config.Load
	vault, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets from Vault: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	if vault.Enabled {
		log.Info().Str("path", vault.Path).Int("loaded", vault.Loaded).Int("skipped", vault.Skipped).Msg("Vault secrets applied")
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	app, err := bootstrap.New(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer app.Close()

	// Redis is optional; without it responses are not cached and rate
	// limits are tracked per instance.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without response cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "mypadicare:")
			bus := events.NewRedisEventBus(redisClient)
			defer bus.Close()
			eventBus = bus
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis cache enabled")
		}
	}

	cacheMiddleware := middleware.NewCache(cacheProvider, middleware.DefaultCacheRoutes(), metrics)

	// Dataset edits invalidate the treatment cache and cached responses,
	// on every instance when an event bus is available.
	var datasetTarget treatments.Invalidator = invalidators{app.Treatments, cacheMiddleware}
	if eventBus != nil {
		datasetSync := services.NewDatasetSync(eventBus, "", invalidators{app.Treatments, cacheMiddleware})
		go func() {
			if err := datasetSync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Dataset sync stopped")
			}
		}()
		datasetTarget = datasetSync
	}

	if cfg.Treatments.Watch {
		watcher, err := treatments.NewWatcher(cfg.Treatments.Dir, datasetTarget)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Treatments.Dir).Msg("Failed to watch treatment datasets")
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
			log.Info().Str("dir", cfg.Treatments.Dir).Msg("Watching treatment datasets")
		}
	}

	limiter := handlers.NewRateLimiter(cacheProvider, "ratelimit:recommendations:", recommendationLimit, recommendationWindow)

	router := routes.NewRouter(routes.Handlers{
		Prediction:     handlers.NewPredictionHandler(app.Predictions),
		Treatment:      handlers.NewTreatmentHandler(app.Resolver),
		Health:         handlers.NewHealthHandler(app.Status),
		Recommendation: handlers.NewRecommendationHandler(app.Recommendations, limiter),
		ResultView:     handlers.NewResultViewHandler(app.Renderer),
	}, cacheMiddleware, cfg.Server.AllowedOrigins, metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Classifier.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("classifier", app.Classifier.Name()).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
