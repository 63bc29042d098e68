package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryEventuallySucceeds(t *testing.T) {
	policy := NewRetryPolicy(3, time.Millisecond)
	calls := 0
	err := policy.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestRetryStopsOnRateLimit(t *testing.T) {
	policy := NewRetryPolicy(5, time.Millisecond)
	calls := 0
	err := policy.Do(func() error {
		calls++
		return RateLimitError{Provider: "edge", Message: "429"}
	})
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("rate limited call retried %d times", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	policy := NewRetryPolicy(10, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.DoCtx(ctx, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if calls == 0 || calls > 2 {
		t.Fatalf("calls = %d", calls)
	}
}
