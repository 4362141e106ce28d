// Package ratelimit throttles login attempts per client IP using a fixed
// window counter. The counter lives in Redis when configured so all API
// instances share one window; without Redis an in-memory store serves a
// single instance. A store failure fails open: losing the throttle is
// better than losing logins.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	platformredis "vendora/internal/platform/redis"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/httputil"
	"vendora/pkg/requestcontext"
)

// Store counts attempts per key within the current window.
type Store interface {
	// Incr increments the counter for key and returns its value. The first
	// increment of a window starts the window's expiry clock.
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}

// RedisStore counts in Redis so the limit holds across instances.
type RedisStore struct {
	client *platformredis.Client
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return int(count), nil
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore counts in process memory for redis-less deployments.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]window
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]window)}
}

func (s *MemoryStore) Incr(ctx context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = window{resetAt: now.Add(ttl)}
	}
	w.count++
	s.windows[key] = w
	return w.count, nil
}

// Limiter enforces a fixed-window limit keyed by client IP.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New builds a limiter. A non-positive limit disables enforcement.
func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Limit is an http middleware rejecting clients over the window limit.
func (l *Limiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = r.RemoteAddr
		}

		count, err := l.store.Incr(ctx, "ratelimit:login:"+ip, l.window)
		if err != nil {
			l.logger.ErrorContext(ctx, "rate limit check failed, failing open", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > l.limit {
			retryAfter := int(l.window.Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			l.logger.WarnContext(ctx, "login rate limit exceeded", "count", count)
			httputil.WriteError(w, l.logger, dErrors.New(dErrors.CodeRateLimited, "too many login attempts, try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
