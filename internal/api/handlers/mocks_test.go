package handlers_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

type mockPredictor struct {
	mock.Mock
	policy services.UploadPolicy
}

func (m *mockPredictor) Predict(ctx context.Context, upload services.Upload, lang entities.Language) (*entities.PredictionResult, error) {
	args := m.Called(ctx, upload, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PredictionResult), args.Error(1)
}

func (m *mockPredictor) Policy() services.UploadPolicy {
	return m.policy
}

type mockTreatmentFinder struct {
	mock.Mock
}

func (m *mockTreatmentFinder) Lookup(ctx context.Context, disease string, lang entities.Language) (*entities.TreatmentRecord, bool) {
	args := m.Called(ctx, disease, lang)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*entities.TreatmentRecord), args.Bool(1)
}

type stubStatusReporter struct {
	status entities.SystemStatus
}

func (s *stubStatusReporter) Status(ctx context.Context) entities.SystemStatus {
	return s.status
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) Recommend(ctx context.Context, req services.RecommendationRequest) entities.Recommendation {
	args := m.Called(ctx, req)
	return args.Get(0).(entities.Recommendation)
}

func (m *mockRecommender) Fallback(req services.RecommendationRequest) string {
	args := m.Called(req)
	return args.String(0)
}

// memoryCache is an in-process CacheProvider for tests. Expirations follow
// now, which tests may replace to drive the clock.
type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	expires map[string]time.Time
	now     func() time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		data:    make(map[string][]byte),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// evict drops key when it has expired. The caller holds mu.
func (c *memoryCache) evict(key string) {
	if at, ok := c.expires[key]; ok && !c.now().Before(at) {
		delete(c.data, key)
		delete(c.expires, key)
	}
}

func (c *memoryCache) setExpiry(key string, expirationSeconds int) {
	if expirationSeconds > 0 {
		c.expires[key] = c.now().Add(time.Duration(expirationSeconds) * time.Second)
	} else {
		delete(c.expires, key)
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(key)
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.setExpiry(key, expirationSeconds)
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.expires, k)
	}
	return nil
}

func (c *memoryCache) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict(key)
	current, exists := c.data[key]
	n, _ := strconv.ParseInt(string(current), 10, 64)
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	if !exists {
		c.setExpiry(key, expirationSeconds)
	}
	return n, nil
}

// failingCache fails every call.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache unavailable")
}

func (failingCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return errors.New("cache unavailable")
}

func (failingCache) Delete(ctx context.Context, keys ...string) error {
	return errors.New("cache unavailable")
}

func (failingCache) Incr(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	return 0, errors.New("cache unavailable")
}
