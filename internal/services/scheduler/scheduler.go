// Package scheduler repeats maintenance actions on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc runs one maintenance action.
type JobFunc func(ctx context.Context, action string) error

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec parses a five field cron expression or a descriptor such as @daily.
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return schedule, nil
}

// Scheduler runs jobs one at a time. A job that comes due while another
// one is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	busy   sync.Mutex
	logger zerolog.Logger
}

// New creates a new scheduler.
func New(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers job for entry. ctx is passed to every run.
func (s *Scheduler) Add(ctx context.Context, entry models.ScheduleEntry, job JobFunc) error {
	schedule, err := ParseSpec(entry.Spec)
	if err != nil {
		return err
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runExclusive(ctx, entry, job)
	}))

	s.logger.Info().
		Str("action", entry.Action).
		Str("spec", entry.Spec).
		Time("next", schedule.Next(time.Now())).
		Msg("maintenance scheduled")
	return nil
}

func (s *Scheduler) runExclusive(ctx context.Context, entry models.ScheduleEntry, job JobFunc) {
	if !s.busy.TryLock() {
		s.logger.Warn().Str("action", entry.Action).Msg("previous maintenance still running, skipping")
		return
	}
	defer s.busy.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := job(ctx, entry.Action); err != nil {
		s.logger.Error().Err(err).Str("action", entry.Action).Msg("scheduled maintenance failed")
	}
}

// Run starts the scheduler and blocks until ctx is cancelled and the
// running job, if any, has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.cron.Entries()) == 0 {
		return fmt.Errorf("no schedule entries configured")
	}

	s.cron.Start()
	<-ctx.Done()

	s.logger.Info().Msg("stopping scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
