// Package retry provides retry logic with exponential backoff. Which errors
// are worth retrying is decided by a caller-supplied predicate, keeping the
// policy out of this package.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts    int           // Total attempts, including the first (minimum 1)
	InitialBackoff time.Duration // Backoff before the second attempt
	MaxBackoff     time.Duration // Cap on any single backoff
	BackoffFactor  float64       // Multiplier applied per attempt
}

// DefaultConfig matches the provisioning-lag policy of the user directory:
// three attempts with backoff 1s then 2s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
	}
}

// Do executes fn up to cfg.MaxAttempts times, sleeping with exponential
// backoff between attempts. It retries only errors for which retryable
// returns true; any other error is returned immediately.
func Do(ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				slog.Info("Operation succeeded after retry",
					"operation", operation,
					"attempt", attempt,
				)
			}
			return nil
		}

		lastErr = err

		if !retryable(err) {
			slog.Debug("Error is not retryable, failing immediately",
				"operation", operation,
				"error", err,
			)
			return err
		}

		if attempt >= attempts {
			slog.Warn("Max retry attempts exceeded",
				"operation", operation,
				"attempts", attempt,
				"error", err,
			)
			return err
		}

		backoff := backoffFor(cfg, attempt)

		slog.Warn("Operation failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// backoffFor calculates the backoff after the given attempt (1-based):
// initial * factor^(attempt-1), capped at MaxBackoff.
func backoffFor(cfg Config, attempt int) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.MaxBackoff > 0 && backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}
