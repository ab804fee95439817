// Package reaper implements the periodic sweep that resets crawl jobs stuck
// in "crawling" back to "pending", recovering from worker crashes or
// process restarts that leave a reservation uncommitted. Grounded on the
// teacher's ticker-driven background loops (crawler/crawler.go), applied
// here to the specification's staleness window of 2*JOB_TIMEOUT.
package reaper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/crawl/repository"
)

// Reaper periodically reclaims stale "crawling" reservations.
type Reaper struct {
	repo         repository.Repository
	staleAfter   time.Duration
	tickInterval time.Duration
	log          zerolog.Logger
}

// New creates a Reaper. staleAfter is the age past which a "crawling" row
// is considered abandoned and reset to "pending".
func New(repo repository.Repository, staleAfter, tickInterval time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{
		repo:         repo,
		staleAfter:   staleAfter,
		tickInterval: tickInterval,
		log:          log.With().Str("component", "reaper").Logger(),
	}
}

// Run blocks, sweeping every tickInterval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reclaimed, err := r.repo.ReapStaleReservations(ctx, r.staleAfter)
			if err != nil {
				r.log.Error().Err(err).Msg("reap sweep failed")
				continue
			}
			if reclaimed > 0 {
				r.log.Info().Int("count", reclaimed).Msg("reclaimed stale reservations")
			}
		}
	}
}
