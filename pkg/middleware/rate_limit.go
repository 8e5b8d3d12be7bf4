package middleware

import (
	"context"
	"net"
	"net/http"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Stop()
}

// InMemoryRateLimiter is a per-process sliding window limiter.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	limiter := &InMemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *InMemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *InMemoryRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *InMemoryRateLimiter) Allow(_ context.Context, key string) bool {
	if key == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[key][:0]
	for _, ts := range rl.requests[key] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// RedisRateLimiter shares a fixed-window counter across API instances.
// Redis failures let the request through.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *logger.Logger
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		log:    log,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		return true
	}

	bucket := time.Now().UnixNano() / int64(rl.window)
	redisKey := "roomly:ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.log.Warn("Rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return incr.Val() <= int64(rl.limit)
}

func (rl *RedisRateLimiter) Stop() {}

// RequesterRateLimit limits each authenticated requester, falling back to
// the client address for anonymous calls.
func RequesterRateLimit(limiter RateLimiter, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)

			if !limiter.Allow(r.Context(), key) {
				log.Warn("Rate limit exceeded",
					"request_id", RequestIDFrom(r.Context()),
					"key", key,
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.RateLimited("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if requester := RequesterFrom(r.Context()); requester != nil {
		return "requester:" + requester.Email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
