// Package worker runs background jobs: cron-scheduled tasks plus the pause,
// deadline and panic helpers they share.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// Wait pauses for d. It returns early with the context error when ctx ends first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pause of %s cut short: %w", d, ctx.Err())
	}
}

// RunWithTimeout gives fn a deadline of timeout. Zero or negative means none.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return fn(ctx)
}

// RecoverPanic must be deferred directly:
//
//	defer worker.RecoverPanic(logger, "rescrape")
func RecoverPanic(logger *zerolog.Logger, task string) {
	r := recover()
	if r == nil {
		return
	}

	logger.Error().Interface("panic", r).Str(logFieldTask, task).Msg("Task panicked")
}
