package domain

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/davidbz/claimrelay/internal/observability"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the delay unit of the linear backoff.
	DefaultRetryBaseDelay = 5 * time.Second
)

// RetryPolicy controls retries of retryable upstream failures (429 and 5xx).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy waits 5s, 10s and 15s before retries 1-3.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultRetryBaseDelay,
	}
}

// LinearBackOff waits BaseDelay × n before the n-th retry.
type LinearBackOff struct {
	BaseDelay time.Duration
	retries   int
}

// NextBackOff returns the delay before the next retry.
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.retries++
	return b.BaseDelay * time.Duration(b.retries)
}

// Reset restarts the sequence.
func (b *LinearBackOff) Reset() {
	b.retries = 0
}

// retryNotifier is called before sleeping ahead of the next attempt.
type retryNotifier func(attempt int, wait time.Duration, err error)

// retryUpstream runs op until it succeeds, fails with a non-retryable error,
// or the policy is exhausted. exhausted is true only in the last case.
func retryUpstream[T any](
	ctx context.Context,
	policy RetryPolicy,
	notify retryNotifier,
	op func(ctx context.Context) (T, error),
) (result T, exhausted bool, err error) {
	attempt := 0

	operation := func() (T, error) {
		attempt++
		res, opErr := op(observability.WithAttempt(ctx, attempt))
		if opErr == nil {
			return res, nil
		}
		if IsRetryable(opErr) {
			return res, opErr
		}
		return res, backoff.Permanent(opErr)
	}

	maxTries := policy.MaxRetries + 1
	if maxTries < 1 {
		maxTries = 1
	}

	result, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(&LinearBackOff{BaseDelay: policy.BaseDelay}),
		backoff.WithMaxTries(uint(maxTries)),
		backoff.WithNotify(func(retryErr error, wait time.Duration) {
			if notify != nil {
				notify(attempt, wait, retryErr)
			}
		}),
	)
	if err != nil {
		return result, IsRetryable(err) && ctx.Err() == nil, err
	}

	return result, false, nil
}
