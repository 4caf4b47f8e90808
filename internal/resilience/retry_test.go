package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errThrottled = errors.New("throttled")

func isThrottled(err error) bool { return errors.Is(err, errThrottled) }

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Jitter:     -1,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), isThrottled, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryRecoversFromThrottling(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetry(3), isThrottled, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errThrottled
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryWithResult returned %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("got %q after %d calls, want %q after 3", got, calls, "ok")
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), isThrottled, func() error {
		calls++
		return errThrottled
	})
	if !errors.Is(err, errThrottled) {
		t.Fatalf("Retry = %v, want wrapped errThrottled", err)
	}
	// Initial attempt plus three retries.
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(3), isThrottled, func() error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Retry = %v, want errBoom", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retries for non-retryable errors)", calls)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, Jitter: -1}
	err := Retry(ctx, cfg, isThrottled, func() error { return errThrottled })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Retry = %v, want context.Canceled", err)
	}
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Jitter: -1}.withDefaults()

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
		{30, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := cfg.delay(tt.retry); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestRetryDelayJitterStaysInRange(t *testing.T) {
	cfg := RetryConfig{BaseDelay: time.Second, MaxDelay: time.Hour, Jitter: 0.2}.withDefaults()
	for i := 0; i < 100; i++ {
		d := cfg.delay(0)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±20%% of 1s", d)
		}
	}
}
