package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/mypadicare/internal/domain/providers"
)

// RateLimiter is a fixed-window counter keyed by client. Counters live in
// the shared cache when one is configured and in process memory otherwise.
type RateLimiter struct {
	cache  providers.CacheProvider
	local  *localRateLimiter
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit calls per window. cache
// may be nil.
func NewRateLimiter(cache providers.CacheProvider, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(),
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow counts one call for client and reports whether it is within the
// limit.
func (l *RateLimiter) Allow(ctx context.Context, client string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	key := l.prefix + client
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	windowSeconds := int(l.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	count, err := l.cache.Incr(ctx, key, windowSeconds)
	if err != nil {
		return l.local.allow(key, l.limit, l.window)
	}
	return count <= int64(l.limit)
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		if len(l.states) >= maxLocalRateStates {
			l.prune(now)
		}
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		return false
	}
	state.count++
	return true
}

const maxLocalRateStates = 4096

func (l *localRateLimiter) prune(now time.Time) {
	for key, state := range l.states {
		if now.After(state.resetAt) {
			delete(l.states, key)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
