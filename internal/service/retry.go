package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default profile fetch retry settings.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// RetryPolicy runs an operation up to MaxAttempts times, sleeping between failed attempts.
// With Backoff unset the delay is fixed; with Backoff set it doubles after every failure.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool

	// Sleep waits for d or until ctx is done. Defaults to a timer based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is three attempts with a fixed one second delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultRetryAttempts, Delay: DefaultRetryDelay}
}

// ErrRetriesExhausted wraps the last error once every attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Do calls fn with a 1-based attempt number until it succeeds, attempts run out or ctx is done.
// Attempts are strictly sequential.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := p.Delay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		if p.Backoff {
			delay *= 2
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
