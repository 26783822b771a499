package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
)

type RetryConfig struct {
	MaxAttempts   int           // including the first
	InitialDelay  time.Duration // before the first retry
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:   3,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// RetryPolicy decides how long to wait before each attempt and which errors
// deserve one.
type RetryPolicy struct {
	Config    RetryConfig
	Retryable func(error) bool
}

func NewRetryPolicy(cfg RetryConfig, retryable func(error) bool) *RetryPolicy {
	if retryable == nil {
		retryable = Retryable
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}
	return &RetryPolicy{Config: cfg, Retryable: retryable}
}

// Delay returns the wait before the given attempt (1-based). The first
// attempt never waits.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := time.Duration(float64(p.Config.InitialDelay) * math.Pow(p.Config.BackoffFactor, float64(attempt-2)))
	if delay > p.Config.MaxDelay {
		delay = p.Config.MaxDelay
	}
	if p.Config.Jitter && delay > 0 {
		// +/-10%
		jitter := time.Duration((rand.Float64()*0.2 - 0.1) * float64(delay))
		delay += jitter
	}
	return delay
}

// shouldRetry also retries an attempt that hit its own deadline while the
// caller's context is still live.
func (p *RetryPolicy) shouldRetry(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return true
	}
	return p.Retryable(err)
}

// WithRetry retries failed completions according to policy.
func WithRetry(policy *RetryPolicy, logger *zap.Logger) Middleware {
	return func(next Client) Client {
		return wrap(next, func(ctx context.Context, req Request) (*Response, error) {
			var lastErr error
			for attempt := 1; attempt <= policy.Config.MaxAttempts; attempt++ {
				if attempt > 1 {
					metrics.IncLLMRetry(req.Agent)
					select {
					case <-ctx.Done():
						return nil, fmt.Errorf("retry cancelled: %w", ctx.Err())
					case <-time.After(policy.Delay(attempt)):
					}
				}

				resp, err := next.Complete(ctx, req)
				if err == nil {
					return resp, nil
				}
				lastErr = err
				if !policy.shouldRetry(ctx, err) || attempt == policy.Config.MaxAttempts {
					break
				}
				logger.Sugar().Warnw("llm call failed, retrying",
					"agent", req.Agent,
					"attempt", attempt,
					"err", err,
				)
			}
			return nil, lastErr
		})
	}
}
