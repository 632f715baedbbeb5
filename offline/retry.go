// ABOUTME: Retry logic with exponential backoff for transport operations.
// ABOUTME: Handles transient network failures with configurable retry behavior.
package offline

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls transport-level retry behavior within a single
// sync attempt. It is distinct from the reconciler's retry budget, which
// counts whole passes.
type RetryConfig struct {
	MaxAttempts int           // maximum number of attempts (default: 3)
	InitialWait time.Duration // wait before first retry (default: 500ms)
	MaxWait     time.Duration // maximum wait between retries (default: 10s)
	Multiplier  float64       // backoff multiplier (default: 2.0)
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
	}
}

// Retryable returns true if the error should trigger a retry.
// Network failures, server errors and rate limiting are transient;
// a rejected request will not get better by repeating it.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNetworkFailure) ||
		errors.Is(err, ErrServerError) ||
		errors.Is(err, ErrRateLimited)
}

// WithRetry executes fn with retry logic.
// Returns result on success, or SyncError after exhausting retries.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op string, fn func() (T, error)) (T, error) {
	var zero T
	wait := cfg.InitialWait
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		if !Retryable(err) || attempt == cfg.MaxAttempts {
			return zero, &SyncError{Op: op, Err: err, Attempts: attempt}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		wait = time.Duration(float64(wait) * cfg.Multiplier)
		if cfg.MaxWait > 0 && wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	return zero, &SyncError{Op: op, Err: ErrNetworkFailure, Attempts: cfg.MaxAttempts}
}
