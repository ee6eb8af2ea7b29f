package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries of transient upstream failures. The zero value
// disables retries.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// backOff doubles the wait from Backoff on every retry, without jitter.
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

// do runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. Waiting honours ctx; a cancelled wait keeps the last
// upstream error alongside the context error.
func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	var last error
	err := backoff.Retry(func() error {
		last = fn()
		if last != nil && !retryable(ctx, last) {
			return backoff.Permanent(last)
		}
		return last
	}, p.backOff(ctx))

	if err != nil && last != nil && !errors.Is(err, last) {
		return errors.Join(last, err)
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	// Transport failures.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errDecode)
}
