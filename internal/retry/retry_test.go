package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithExponentialBackoff_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), testConfig(), func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("connection reset"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithExponentialBackoff returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithExponentialBackoff_StopsOnNonTransientError(t *testing.T) {
	permanent := errors.New("not found")
	calls := 0
	err := WithExponentialBackoff(context.Background(), testConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent failure)", calls)
	}
}

func TestWithExponentialBackoff_ExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	err := WithExponentialBackoff(context.Background(), testConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return Transient(errors.New("timeout"))
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithExponentialBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithExponentialBackoff(ctx, testConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestIsTransient_SeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("fetch quote: %w", Transient(errors.New("http 503")))
	if !IsTransient(wrapped) {
		t.Error("IsTransient(wrapped transient) = false, want true")
	}
	if IsTransient(errors.New("http 404")) {
		t.Error("IsTransient(plain error) = true, want false")
	}
}

func TestBackoffDelay_CappedAtMaxDelay(t *testing.T) {
	config := &Config{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}

	if got := backoffDelay(config, 1); got != 500*time.Millisecond {
		t.Errorf("backoffDelay(1) = %v, want 500ms", got)
	}
	if got := backoffDelay(config, 2); got != time.Second {
		t.Errorf("backoffDelay(2) = %v, want 1s", got)
	}
	if got := backoffDelay(config, 4); got != 2*time.Second {
		t.Errorf("backoffDelay(4) = %v, want cap of 2s", got)
	}
}
