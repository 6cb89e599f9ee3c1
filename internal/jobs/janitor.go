// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SessionCleaner removes expired sessions.
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler wraps cron-based jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewScheduler returns a stopped scheduler.
func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// ScheduleSessionCleanup registers expired-session cleanup at spec, a
// standard cron expression or descriptor such as "@hourly".
func (s *Scheduler) ScheduleSessionCleanup(spec string, cleaner SessionCleaner) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { CleanSessions(context.Background(), cleaner, s.logger) })
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CleanSessions runs one cleanup pass and logs the outcome.
func CleanSessions(ctx context.Context, cleaner SessionCleaner, logger zerolog.Logger) {
	removed, err := cleaner.CleanExpiredSessions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to clean expired sessions")
		return
	}
	if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Expired sessions cleaned")
	}
}
