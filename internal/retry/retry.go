package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sqve/avalanche/internal/config"
	"github.com/sqve/avalanche/internal/errors"
	"github.com/sqve/avalanche/internal/logger"
)

func log() *logger.Logger {
	return logger.WithComponent("retry")
}

type Policy struct {
	MaxAttempts   int           // Total attempts, including the first.
	BaseDelay     time.Duration // Base delay for exponential backoff.
	MaxDelay      time.Duration // Upper bound for a single wait.
	JitterEnabled bool          // Spread waits by ±25%.
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		JitterEnabled: true,
	}
}

// ConfiguredPolicy reads the retry.* settings, falling back to
// DefaultPolicy when settings were never initialized.
func ConfiguredPolicy() Policy {
	maxAttempts := config.GetInt("retry.max_attempts")
	baseDelay := config.GetDuration("retry.base_delay")
	maxDelay := config.GetDuration("retry.max_delay")

	if maxAttempts == 0 && baseDelay == 0 && maxDelay == 0 {
		return DefaultPolicy()
	}

	return Policy{
		MaxAttempts:   maxAttempts,
		BaseDelay:     baseDelay,
		MaxDelay:      maxDelay,
		JitterEnabled: config.GetBool("retry.jitter_enabled"),
	}
}

type RetryableError interface {
	IsRetryable() bool
}

// Do runs operation until it succeeds, returns a non-retryable error, or
// the attempts are exhausted.
func Do(ctx context.Context, policy Policy, operation func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, ctx.Err())
		default:
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				log().Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		lastErr = err

		if !shouldRetry(err, attempt, policy.MaxAttempts) {
			break
		}

		delay := Backoff(attempt, policy)
		log().Debug("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"error", err,
			"delay", delay.String())

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if policy.MaxAttempts <= 1 {
		return lastErr
	}
	return errors.Wrapf(lastErr, "operation failed after %d attempts", policy.MaxAttempts)
}

func shouldRetry(err error, attempt, maxAttempts int) bool {
	if attempt >= maxAttempts {
		return false
	}

	var retryableErr RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}

	return false
}

// Backoff returns the wait after the given failed attempt:
// BaseDelay * 2^(attempt-1), capped at MaxDelay, with optional jitter.
func Backoff(attempt int, policy Policy) time.Duration {
	exponential := float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	if exponential > float64(policy.MaxDelay) {
		exponential = float64(policy.MaxDelay)
	}

	delay := time.Duration(exponential)

	if policy.JitterEnabled {
		jitter := float64(delay) * 0.25 * (rand.Float64()*2 - 1)
		delay = time.Duration(float64(delay) + jitter)
		if delay < 0 {
			delay = policy.BaseDelay
		}
	}

	return delay
}

// WithConfiguredRetry runs operation under ConfiguredPolicy.
func WithConfiguredRetry(ctx context.Context, operation func(context.Context) error) error {
	return Do(ctx, ConfiguredPolicy(), operation)
}
