// Package schedule runs jobs at fixed local wall-clock times.
package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers registered jobs on cron-style specs in the
// process's local timezone.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a stopped scheduler; call Run to start it.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cronLogger{logger: logger}),
		),
		logger: logger,
	}
}

// Add registers fn to run on the given spec, e.g. "0 9 * * *".
func (s *Scheduler) Add(spec string, fn func()) error {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("add schedule %q: %w", spec, err)
	}
	s.logger.Info("Schedule registered", "spec", spec)
	return nil
}

// Run starts the scheduler and blocks until the process is killed.
func (s *Scheduler) Run() {
	s.logger.Info("Scheduler running",
		"entries", len(s.cron.Entries()),
		"timezone", time.Local.String())
	s.cron.Run()
}

// cronLogger adapts the cron library's logger to slog. The library's
// informational chatter lands at Debug; job panics and bad specs at Error.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
