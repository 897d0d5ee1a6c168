package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/promptcraft/promptcraft/internal/domain"
)

// ResilientScorer wraps a scorer with resilience patterns from fortify
type ResilientScorer struct {
	scorer         Scorer
	circuitBreaker circuitbreaker.CircuitBreaker[domain.ScoreVector]
	retrier        retry.Retry[domain.ScoreVector]
	bulkhead       bulkhead.Bulkhead[domain.ScoreVector]
	rateLimit      ratelimit.RateLimiter
	logger         *slog.Logger
	name           string
}

// ResilientConfig holds configuration for the resilient wrapper
type ResilientConfig struct {
	// EnableCircuitBreaker enables circuit breaker pattern
	EnableCircuitBreaker bool

	// EnableRetry enables retry with backoff
	EnableRetry bool

	// EnableBulkhead enables concurrency limiting
	EnableBulkhead bool

	// EnableRateLimit enables rate limiting
	EnableRateLimit bool

	// MaxConcurrent for bulkhead (default: 5)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 2)
	RatePerSecond int

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns sensible defaults for remote scoring
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        5,
		RatePerSecond:        2,
	}
}

// NewResilientScorer wraps a scorer with resilience patterns using fortify
func NewResilientScorer(scorer Scorer, cfg ResilientConfig) *ResilientScorer {
	rs := &ResilientScorer{
		scorer: scorer,
		logger: cfg.Logger,
		name:   scorer.Name(),
	}

	if cfg.EnableCircuitBreaker {
		rs.circuitBreaker = circuitbreaker.New[domain.ScoreVector](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if rs.logger != nil {
					rs.logger.Warn("circuit breaker state change",
						"scorer", scorer.Name(),
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		rs.retrier = retry.New[domain.ScoreVector](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  2 * time.Second,
			MaxDelay:      60 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable: func(err error) bool {
				return isRetryableHTTPError(err)
			},
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 5
		}
		rs.bulkhead = bulkhead.New[domain.ScoreVector](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  30 * time.Second,
		})
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 2
		}
		rs.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 3,
			Interval: time.Second,
		})
	}

	return rs
}

func (s *ResilientScorer) Name() string {
	return s.scorer.Name()
}

func (s *ResilientScorer) Score(ctx context.Context, req *Request) (domain.ScoreVector, error) {
	if s.rateLimit != nil {
		if !s.rateLimit.Allow(ctx, s.name) {
			return nil, fmt.Errorf("rate limit exceeded for scorer %s", s.name)
		}
	}

	operation := func(ctx context.Context) (domain.ScoreVector, error) {
		return s.scorer.Score(ctx, req)
	}

	if s.bulkhead != nil {
		operation = func(ctx context.Context) (domain.ScoreVector, error) {
			return s.bulkhead.Execute(ctx, func(ctx context.Context) (domain.ScoreVector, error) {
				return s.scorer.Score(ctx, req)
			})
		}
	}

	if s.circuitBreaker != nil && s.retrier != nil {
		return s.circuitBreaker.Execute(ctx, func(ctx context.Context) (domain.ScoreVector, error) {
			return s.retrier.Do(ctx, operation)
		})
	}

	if s.circuitBreaker != nil {
		return s.circuitBreaker.Execute(ctx, operation)
	}

	if s.retrier != nil {
		return s.retrier.Do(ctx, operation)
	}

	return operation(ctx)
}

// Close releases resources held by the resilient scorer
func (s *ResilientScorer) Close() error {
	if s.rateLimit != nil {
		return s.rateLimit.Close()
	}
	return nil
}

// isRetryableHTTPError checks if an error is retryable based on HTTP semantics
func isRetryableHTTPError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	retryable := []string{
		fmt.Sprintf("status %d", http.StatusTooManyRequests),
		fmt.Sprintf("status %d", http.StatusInternalServerError),
		fmt.Sprintf("status %d", http.StatusBadGateway),
		fmt.Sprintf("status %d", http.StatusServiceUnavailable),
		fmt.Sprintf("status %d", http.StatusGatewayTimeout),
	}
	for _, pattern := range retryable {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
