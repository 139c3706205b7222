package usecase

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines how backend calls are retried
type RetryPolicy struct {
	MaxAttempts  int           // Total attempts including the first
	InitialDelay time.Duration // Delay before the second attempt, doubled afterwards
	MaxDelay     time.Duration
	JitterFactor float64 // 0.0-1.0
}

// DefaultRetryPolicy returns three attempts with 1s, 2s backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Delay returns the wait before the given retry (1-based)
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	delay := p.InitialDelay * time.Duration(math.Pow(2, float64(retry-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.JitterFactor > 0 {
		jitter := float64(delay) * p.JitterFactor * (rand.Float64()*2 - 1)
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// sleepFunc waits for d or until ctx is done
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// execute runs fn until it succeeds, returns a non-retryable error, or attempts run out
func (p RetryPolicy) execute(ctx context.Context, sleep sleepFunc, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, p.Delay(attempt+1)); err != nil {
			return err
		}
	}
	return lastErr
}
