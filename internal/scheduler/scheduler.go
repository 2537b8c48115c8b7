// Package scheduler runs recurring background maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Expirer flags planned changes that can no longer occur.
type Expirer interface {
	ExpireEnded(ctx context.Context, today time.Time) (int64, error)
}

// Scheduler wraps a cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron *cron.Cron
	now  func() time.Time
}

// New creates a scheduler evaluating schedules in UTC.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		now: time.Now,
	}
}

// AddExpirySweep registers the expiry sweep on a standard five field cron schedule.
// An empty schedule registers nothing.
func (s *Scheduler) AddExpirySweep(schedule string, expirer Expirer, timeout time.Duration) error {
	if schedule == "" {
		log.Info().Msg("expiry sweep disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.runExpirySweep(expirer, timeout) }); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	log.Info().Str("schedule", schedule).Msg("expiry sweep scheduled")
	return nil
}

// RunExpirySweep runs the expiry sweep once, outside the schedule.
func (s *Scheduler) RunExpirySweep(expirer Expirer, timeout time.Duration) {
	s.runExpirySweep(expirer, timeout)
}

func (s *Scheduler) runExpirySweep(expirer Expirer, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := expirer.ExpireEnded(ctx, s.now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	log.Debug().Int64("expired", n).Msg("expiry sweep finished")
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler stopped before running jobs finished")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
