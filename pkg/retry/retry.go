package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- fraction of each delay
}

// ConnectConfig returns the policy for reaching a database that may still be
// starting: 6 attempts over roughly ten seconds.
func ConnectConfig() *Config {
	return &Config{
		MaxRetries:   5,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter returns delay +/- (delay * jitterFactor * random(-1 to +1)).
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// OnRetry is called before each wait with the attempt number (1-based) and its error.
type OnRetry func(attempt int, err error)

// Do executes fn with exponential backoff, retrying only transient errors.
// Respects context cancellation during wait periods.
func Do(ctx context.Context, cfg *Config, onRetry OnRetry, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, onRetry, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult executes fn and returns both result and error.
// Permanent errors (see IsRetryable) are returned immediately.
func DoWithResult[T any](ctx context.Context, cfg *Config, onRetry OnRetry, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = ConnectConfig()
	}

	var zero T
	delay := cfg.InitialDelay

	for attempt := 0; ; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		if attempt >= cfg.MaxRetries || !IsRetryable(err) {
			return zero, err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		select {
		case <-time.After(applyJitter(delay, cfg.JitterFactor)):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// retryablePatterns are driver error fragments seen while PostgreSQL starts or restarts.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"timed out",
	"network is unreachable",
	"too many connections",
	"the database system is starting up",
	"the database system is shutting down",
}

// IsRetryable determines if an error is transient and worth retrying.
// Authentication failures, unknown databases and bad SQL are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
