// Package monitoring runs housekeeping jobs in the background.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/blogpress/internal/session"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const sweepTimeout = 30 * time.Second

// SessionSweeper periodically purges expired sessions from a session store.
type SessionSweeper struct {
	store session.Store
	cron  *cron.Cron
	now   func() time.Time
}

// NewSessionSweeper schedules a sweep of store according to spec, a standard
// cron expression or a descriptor such as "@every 15m".
func NewSessionSweeper(store session.Store, spec string) (*SessionSweeper, error) {
	logger := log.With().Str("component", "session-sweeper").Logger()
	s := &SessionSweeper{
		store: store,
		cron:  cron.New(cron.WithLogger(cron.PrintfLogger(&logger))),
		now:   time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start sweeps once immediately and then on schedule.
func (s *SessionSweeper) Start() {
	log.Info().Msg("Starting background session sweeper...")
	s.Sweep()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background session sweeper.")
}

// Sweep deletes every session that has expired by now.
func (s *SessionSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Swept expired sessions")
	}
}
