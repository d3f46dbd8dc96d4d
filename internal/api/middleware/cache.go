package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for a route prefix
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// DefaultCacheRoutes caches the read-only treatment lookups.
func DefaultCacheRoutes() map[string]CacheConfig {
	return map[string]CacheConfig{
		"/api/treatments/":   {TTLSeconds: 600, Enabled: true},
		"/api/upload-policy": {TTLSeconds: 3600, Enabled: true},
	}
}

// Cache stores successful GET responses in a shared cache. Entries are
// keyed by a generation number, so Invalidate makes every stored response
// unreachable without scanning the cache.
type Cache struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
	metrics      *observability.Metrics
	generation   atomic.Uint64
}

// NewCache creates a response cache. A nil provider disables caching.
func NewCache(cache providers.CacheProvider, routes map[string]CacheConfig, metrics *observability.Metrics) *Cache {
	return &Cache{
		cache:        cache,
		routeConfigs: routes,
		metrics:      metrics,
	}
}

// Invalidate drops every cached response.
func (m *Cache) Invalidate() {
	m.generation.Add(1)
}

// Middleware returns the cache middleware handler
func (m *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.routeConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		logger := observability.LoggerFromContext(ctx)
		cacheKey := m.cacheKey(r)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

func (m *Cache) routeConfig(path string) CacheConfig {
	if config, ok := m.routeConfigs[path]; ok {
		return config
	}
	for prefix, config := range m.routeConfigs {
		if strings.HasSuffix(prefix, "/") && strings.HasPrefix(path, prefix) {
			return config
		}
	}
	return CacheConfig{}
}

func (m *Cache) cacheKey(r *http.Request) string {
	key := fmt.Sprintf("%d:%s:%s", m.generation.Load(), r.Method, r.URL.Path)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return "http:" + hex.EncodeToString(hash[:])
}

// responseRecorder copies the response body while writing it through.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
