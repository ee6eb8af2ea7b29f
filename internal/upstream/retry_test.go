package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestRetryPolicy_BackOff(t *testing.T) {
	b := RetryPolicy{MaxRetries: 3, Backoff: 100 * time.Millisecond}.backOff(context.Background())
	b.Reset()
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, backoff.Stop}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("retry %d: wait %s, want %s", i+1, got, w)
		}
	}

	zero := RetryPolicy{}.backOff(context.Background())
	zero.Reset()
	if got := zero.NextBackOff(); got != backoff.Stop {
		t.Errorf("zero policy should not retry, got %s", got)
	}
}

func TestRetryPolicy_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	err := RetryPolicy{MaxRetries: 3}.do(context.Background(), func() error {
		calls++
		return &Error{StatusCode: http.StatusUnauthorized}
	})
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	var ue *Error
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected the 401 to be returned unwrapped, got %v", err)
	}
}

func TestRetryPolicy_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	err := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}.do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &Error{StatusCode: http.StatusBadGateway}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("expected success on the second attempt, got %d attempts, err=%v", calls, err)
	}
}

func TestRetryPolicy_TransportErrorsRetried(t *testing.T) {
	calls := 0
	err := RetryPolicy{MaxRetries: 2}.do(context.Background(), func() error {
		calls++
		return errors.New("connection reset")
	})
	if err == nil || calls != 3 {
		t.Errorf("expected 3 attempts and an error, got %d attempts, err=%v", calls, err)
	}
}

func TestRetryPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryPolicy{MaxRetries: 5, Backoff: time.Hour}.do(ctx, func() error {
		calls++
		cancel()
		return &Error{StatusCode: http.StatusServiceUnavailable}
	})
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	var ue *Error
	if !errors.As(err, &ue) {
		t.Errorf("expected the upstream error to be kept, got %v", err)
	}
}

func TestRetryPolicy_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := RetryPolicy{MaxRetries: 5, Backoff: time.Hour}.do(ctx, func() error {
		calls++
		return &Error{StatusCode: http.StatusTooManyRequests}
	})
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	var ue *Error
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected the last upstream error to be kept, got %v", err)
	}
}
