package connection

import (
	"context"
	"log/slog"
	"time"
)

// DefaultStableAfter is how long an attempt must run before the
// backoff resets.
const DefaultStableAfter = 30 * time.Second

// RetryConfig configures Retry.
type RetryConfig struct {
	// Backoff paces the attempts. Nil means NewBackoff().
	Backoff *Backoff

	// StableAfter resets the backoff when an attempt ran at least this
	// long before failing. Zero means DefaultStableAfter.
	StableAfter time.Duration

	// Logger for attempt logging (optional).
	Logger *slog.Logger
}

// Retry runs fn until it returns nil or ctx is canceled. A failing fn
// is retried after a backoff delay; an attempt that stayed up past
// StableAfter resets the schedule so a long-lived connection that
// finally drops reconnects quickly.
func Retry(ctx context.Context, config RetryConfig, fn func(context.Context) error) error {
	backoff := config.Backoff
	if backoff == nil {
		backoff = NewBackoff()
	}
	stableAfter := config.StableAfter
	if stableAfter <= 0 {
		stableAfter = DefaultStableAfter
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for {
		started := time.Now()
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(started) >= stableAfter {
			backoff.Reset()
		}

		delay := backoff.Next()
		logger.Warn("connection attempt failed",
			"error", err,
			"attempt", backoff.Attempts(),
			"retry_in", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
