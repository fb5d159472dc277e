package resilience

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy is an explicit retry policy: how many attempts, the backoff between
// them, and which errors qualify. It is a plain value consumed by Do/DoVal,
// decoupled from any particular call site.
type Policy struct {
	// MaxAttempts is the total number of attempts including the first.
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// Backoff is the sleep schedule between attempts. Attempt n sleeps
	// Backoff[n-1]; past the end the last entry repeats.
	// Default: 500ms, 2s.
	Backoff []time.Duration

	// JitterFraction randomizes each sleep by ±fraction. Default: 0.25.
	JitterFraction float64

	// Retryable decides whether an error qualifies for another attempt.
	// If nil, IsRetryable is used.
	Retryable func(err error) bool

	// OnRetry is called before each sleep with the attempt number and error.
	OnRetry func(attempt int, err error)
}

// OraclePolicy returns the retry policy for oracle calls: three attempts with
// increasing backoff, retrying only timeout-class errors.
func OraclePolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		Backoff:        []time.Duration{500 * time.Millisecond, 2 * time.Second},
		JitterFraction: 0.25,
	}
}

// Do executes fn under the policy. Context cancellation stops retries
// immediately and returns the last error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn under the policy, preserving the value from the
// successful attempt.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = withDefaults(p)

	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !retryable(lastErr) {
			return zero, lastErr
		}
		if attempt >= p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(p.sleep(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func withDefaults(p Policy) Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if len(p.Backoff) == 0 {
		p.Backoff = []time.Duration{500 * time.Millisecond, 2 * time.Second}
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// sleep returns the jittered backoff for the given zero-based attempt.
func (p Policy) sleep(attempt int) time.Duration {
	idx := attempt
	if idx >= len(p.Backoff) {
		idx = len(p.Backoff) - 1
	}
	delay := float64(p.Backoff[idx])

	if p.JitterFraction > 0 {
		span := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * span
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each attempt.
func RetryLogger(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
