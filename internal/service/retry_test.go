package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleeps struct{ delays []time.Duration }

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestRetryPolicy_Do_SucceedsAfterFailures(t *testing.T) {
	rec := &recordedSleeps{}
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Second, Sleep: rec.sleep}

	calls := 0
	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.delays)
}

func TestRetryPolicy_Do_Exhausted(t *testing.T) {
	rec := &recordedSleeps{}
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Second, Sleep: rec.sleep}
	cause := errors.New("no row")

	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return cause
	})
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
	// no sleep after the final attempt
	assert.Len(t, rec.delays, 2)
}

func TestRetryPolicy_Do_Backoff(t *testing.T) {
	rec := &recordedSleeps{}
	p := RetryPolicy{MaxAttempts: 4, Delay: 100 * time.Millisecond, Backoff: true, Sleep: rec.sleep}
	_ = p.Do(context.Background(), func(context.Context, int) error { return errors.New("x") })
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, rec.delays)
}

func TestRetryPolicy_Do_CanceledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(context.Context, int) error {
			calls++
			return errors.New("fail")
		})
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not stop on cancel")
	}
	assert.LessOrEqual(t, calls, 1)
}

func TestRetryPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
