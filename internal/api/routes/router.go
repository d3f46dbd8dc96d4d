package routes

import (
	"net/http"

	"github.com/zatekoja/mypadicare/internal/api/handlers"
	"github.com/zatekoja/mypadicare/internal/api/middleware"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	predictionHandler     *handlers.PredictionHandler
	treatmentHandler      *handlers.TreatmentHandler
	healthHandler         *handlers.HealthHandler
	recommendationHandler *handlers.RecommendationHandler
	resultViewHandler     *handlers.ResultViewHandler
	legacyHandler         *handlers.LegacyHandler

	cacheMiddleware *middleware.Cache
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the handlers the router serves.
type Handlers struct {
	Prediction     *handlers.PredictionHandler
	Treatment      *handlers.TreatmentHandler
	Health         *handlers.HealthHandler
	Recommendation *handlers.RecommendationHandler
	ResultView     *handlers.ResultViewHandler
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(h Handlers, cacheMiddleware *middleware.Cache, allowedOrigins []string, metrics *observability.Metrics) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		predictionHandler:     h.Prediction,
		treatmentHandler:      h.Treatment,
		healthHandler:         h.Health,
		recommendationHandler: h.Recommendation,
		resultViewHandler:     h.ResultView,
		legacyHandler:         handlers.NewLegacyHandler(h.Prediction, h.Treatment, h.Health),
		cacheMiddleware:       cacheMiddleware,
		allowedOrigins:        allowedOrigins,
		metrics:               metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.mux.HandleFunc("GET /api/health", r.healthHandler.GetHealth)

	r.mux.HandleFunc("POST /api/predict", r.predictionHandler.Predict)
	r.mux.HandleFunc("GET /api/upload-policy", r.predictionHandler.GetUploadPolicy)

	r.mux.HandleFunc("GET /api/treatments/{disease}", r.treatmentHandler.GetTreatment)

	r.mux.HandleFunc("POST /api/recommendations", r.recommendationHandler.Recommend)
	r.mux.HandleFunc("POST /api/results/view", r.resultViewHandler.RenderResult)

	// older web clients use one endpoint for everything
	r.mux.Handle("/predict_api.php", r.legacyHandler)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.Recover(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.Observability(r.metrics)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
