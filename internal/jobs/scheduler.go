package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"webagency/api/internal/repository"
)

// Scheduler runs the expired-session sweep. The sweep is safe to run beside
// request handling: deleting an already-expired session is idempotent and the
// auth middleware re-checks expiry on every request anyway.
type Scheduler struct {
	cron     *cron.Cron
	sessions repository.SessionRepository
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(sessions repository.SessionRepository, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		interval: interval,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.sweepSessions); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions swept")
	}
}
