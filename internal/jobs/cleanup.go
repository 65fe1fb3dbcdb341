// Package jobs holds the in-process background work. The only job is the
// session sweeper; there is no durable queue because sessions themselves are
// not durable.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/mesa/internal/session"
	"github.com/dukerupert/mesa/internal/telemetry"
)

// DefaultSweepInterval is how often expired sessions are purged.
const DefaultSweepInterval = 10 * time.Minute

// SessionSweeper periodically removes expired sessions from the store.
type SessionSweeper struct {
	store    *session.Store
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionSweeper creates a sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSessionSweeper(store *session.Store, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a ticker until ctx is canceled. Blocks; run in a goroutine.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		}
	}
}

func (s *SessionSweeper) sweep() {
	removed := s.store.PurgeExpired()
	if removed == 0 {
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.SessionsPurged.Add(float64(removed))
	}
	s.logger.Info("expired sessions purged", "count", removed, "remaining", s.store.Len())
}
