package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryConfig tunes [Retry]. The zero value retries up to 3 times starting
// at a 1 s delay that doubles per attempt, with ±20% jitter.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Default: 3.
	MaxRetries int

	// BaseDelay is the delay before the first retry; each subsequent
	// retry doubles it. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps the per-retry delay. Default: 30s.
	MaxDelay time.Duration

	// Jitter is the fraction of random spread applied to each delay
	// (0.2 means ±20%). Negative disables jitter. Default: 0.2.
	Jitter float64
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = 0.2
	}
	return cfg
}

// delay returns the backoff before retry number n (0-based), jittered.
func (cfg RetryConfig) delay(n int) time.Duration {
	d := cfg.BaseDelay << uint(n)
	if d > cfg.MaxDelay || d <= 0 {
		d = cfg.MaxDelay
	}
	if cfg.Jitter > 0 {
		spread := 1 + cfg.Jitter*(2*rand.Float64()-1)
		d = time.Duration(float64(d) * spread)
	}
	return d
}

// Retry runs fn, retrying with exponential backoff whenever fn fails with an
// error for which retryable returns true. Errors that are not retryable, and
// the final error once the retry budget is spent, are returned as is. The
// context cancels any pending backoff sleep.
func Retry(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, retryable, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult is [Retry] for functions that return a value.
func RetryWithResult[R any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func() (R, error)) (R, error) {
	cfg = cfg.withDefaults()

	var zero R
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if retryable == nil || !retryable(err) {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			return zero, fmt.Errorf("retries exhausted after %d attempts: %w", attempt+1, err)
		}

		d := cfg.delay(attempt)
		slog.Warn("retrying after backoff",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"delay", d,
			"error", err)

		select {
		case <-time.After(d):
		case <-ctx.Done():
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
}
