package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a keyed token bucket. Each key owns a bucket of
// capacity burst that refills by rate tokens per interval.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	rate     int
	interval time.Duration
	burst    int
	maxIdle  time.Duration
}

type tokenBucket struct {
	tokens   int
	refilled time.Time
}

// NewRateLimiter creates a rate limiter allowing rate requests per
// interval with bursts up to burst. Idle buckets are reaped in the
// background.
func NewRateLimiter(rate int, interval time.Duration, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*tokenBucket),
		rate:     rate,
		interval: interval,
		burst:    burst,
		maxIdle:  5 * time.Minute,
	}
	go rl.reapIdle()
	return rl
}

// Allow consumes a token for key, reporting whether the request may
// proceed. Unknown keys start with a full bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refillLocked(key, time.Now())
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Remaining reports how many tokens key has left
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[key]; ok {
		return b.tokens
	}
	return rl.burst
}

// refillLocked returns key's bucket after crediting any whole
// elapsed intervals. Callers must hold mu.
func (rl *RateLimiter) refillLocked(key string, now time.Time) *tokenBucket {
	b, ok := rl.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, refilled: now}
		rl.buckets[key] = b
		return b
	}

	intervals := int(now.Sub(b.refilled) / rl.interval)
	if intervals > 0 {
		b.tokens = min(b.tokens+intervals*rl.rate, rl.burst)
		b.refilled = now
	}
	return b
}

func (rl *RateLimiter) reapIdle() {
	ticker := time.NewTicker(rl.maxIdle)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.maxIdle)
		for key, b := range rl.buckets {
			if b.refilled.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitConfig configures the rate limiting middleware
type RateLimitConfig struct {
	// Requests per minute for general API endpoints
	RequestsPerMinute int
	// Requests per minute for scoring endpoints, which may call an
	// external grader
	ScoringRequestsPerMinute int
	// Burst size multiplier (burst = rate * multiplier)
	BurstMultiplier int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute:        60,
		ScoringRequestsPerMinute: 10,
		BurstMultiplier:          3,
	}
}

// RateLimitMiddleware limits general API traffic per user or IP
func RateLimitMiddleware(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(
		config.RequestsPerMinute,
		time.Minute,
		config.RequestsPerMinute*config.BurstMultiplier,
	)
	return limitMiddleware(limiter, "too many requests, please try again later", true)
}

// ScoringRateLimitMiddleware applies the stricter budget for
// submission endpoints
func ScoringRateLimitMiddleware(config RateLimitConfig) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(
		config.ScoringRequestsPerMinute,
		time.Minute,
		config.ScoringRequestsPerMinute*config.BurstMultiplier,
	)
	return limitMiddleware(limiter, "too many submissions, please wait before trying again", false)
}

func limitMiddleware(limiter *RateLimiter, message string, exposeRemaining bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)

			if !limiter.Allow(key) {
				slog.Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"` + message + `"}}`))
				return
			}

			if exposeRemaining {
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitKey buckets by user when identified, otherwise by client IP
func rateLimitKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + userID
	}
	return "ip:" + clientIP(r)
}

// clientIP resolves the originating address, honoring proxy headers
func clientIP(r *http.Request) string {
	// X-Forwarded-For may carry a chain; the first hop is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
