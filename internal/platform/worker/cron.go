package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronTask is a job run on a cron schedule.
type CronTask struct {
	Name string
	// Spec is a standard 5-field expression or a descriptor such as "@every 6h".
	Spec string
	// Timeout bounds one run. Zero means no limit.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// ValidateSpec reports whether spec parses as a schedule.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// RunCron schedules tasks and blocks until ctx is cancelled. Overlapping
// runs of one task are skipped. Running jobs are waited for on exit.
func RunCron(ctx context.Context, name string, tasks []CronTask, logger *zerolog.Logger) error {
	clog := cronLogger{logger: logger}

	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))

	for _, task := range tasks {
		if _, err := c.AddFunc(task.Spec, cronJob(ctx, task, logger)); err != nil {
			return fmt.Errorf("schedule %s: %w", task.Name, err)
		}

		logger.Info().Str(logFieldWorker, name).Str(logFieldTask, task.Name).Str("spec", task.Spec).Msg("Task scheduled")
	}

	c.Start()
	logger.Info().Str(logFieldWorker, name).Msg("starting cron loop")

	<-ctx.Done()

	<-c.Stop().Done()
	logger.Info().Str(logFieldWorker, name).Msg("cron loop stopped")

	return fmt.Errorf("cron loop %s: %w", name, ctx.Err())
}

func cronJob(ctx context.Context, task CronTask, logger *zerolog.Logger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()

		err := RunWithTimeout(ctx, task.Timeout, task.Run)
		if err != nil {
			logger.Error().Err(err).Str(logFieldTask, task.Name).Msg("Scheduled task failed")

			return
		}

		logger.Info().Str(logFieldTask, task.Name).Dur("took", time.Since(start)).Msg("Scheduled task finished")
	}
}
