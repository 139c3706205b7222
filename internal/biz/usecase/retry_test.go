package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func recordSleeps(delays *[]time.Duration) sleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetryExecute_BacksOffUntilSuccess(t *testing.T) {
	var delays []time.Duration
	calls := 0
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond}

	err := p.execute(context.Background(), recordSleeps(&delays), func(error) bool { return true },
		func(ctx context.Context, attempt int) error {
			calls++
			if attempt < 2 {
				return errFlaky
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestRetryExecute_StopsOnFatal(t *testing.T) {
	var delays []time.Duration
	calls := 0
	p := RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond}

	err := p.execute(context.Background(), recordSleeps(&delays), func(error) bool { return false },
		func(ctx context.Context, attempt int) error {
			calls++
			return errFlaky
		})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetryExecute_ReturnsLastErrorWhenExhausted(t *testing.T) {
	var delays []time.Duration
	p := RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}

	err := p.execute(context.Background(), recordSleeps(&delays), func(error) bool { return true },
		func(ctx context.Context, attempt int) error {
			return errFlaky
		})

	assert.ErrorIs(t, err, errFlaky)
	assert.Len(t, delays, 1)
}

func TestRetryExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := DefaultRetryPolicy()

	err := p.execute(ctx, sleepCtx, func(error) bool { return true },
		func(ctx context.Context, attempt int) error {
			t.Fatal("fn must not run on a cancelled context")
			return nil
		})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicyDelay_CapsAndJitter(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 3*time.Second, p.Delay(5))

	p.JitterFactor = 0.5
	for i := 0; i < 20; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}
