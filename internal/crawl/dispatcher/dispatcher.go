// Package dispatcher implements the periodic tick loop that turns due
// crawl_urls rows into reserved, enqueued work items. Grounded on the
// teacher's crawlPage tick/select loop (crawler/crawler.go), generalized
// from a single recursive-crawl run into a standing per-process loop that
// fetches due URLs, applies domain politeness and anomaly/robots gating,
// and hands reserved work to the queue.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/crawl/anomaly"
	"github.com/corvuscrawl/seeker/internal/crawl/model"
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/queue"
)

// Dispatcher runs the periodic fetch-due/lock/reserve/enqueue tick.
type Dispatcher struct {
	repo     repository.Repository
	anomaly  *anomaly.Gate
	robots   *robots.Gate
	producer queue.Producer
	redis    *redis.Client

	tickInterval time.Duration
	batchLimit   int
	lockTTL      time.Duration

	log zerolog.Logger
}

// New creates a Dispatcher.
func New(
	repo repository.Repository,
	anomalyGate *anomaly.Gate,
	robotsGate *robots.Gate,
	producer queue.Producer,
	redisClient *redis.Client,
	tickInterval time.Duration,
	batchLimit int,
	lockTTL time.Duration,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:         repo,
		anomaly:      anomalyGate,
		robots:       robotsGate,
		producer:     producer,
		redis:        redisClient,
		tickInterval: tickInterval,
		batchLimit:   batchLimit,
		lockTTL:      lockTTL,
		log:          log.With().Str("component", "dispatcher").Logger(),
	}
}

// Run blocks, ticking every tickInterval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				d.log.Error().Err(err).Msg("dispatch tick failed")
			}
		}
	}
}

func lockKey(domain string) string {
	return fmt.Sprintf("lock:%s", domain)
}

// tick runs one fetch_due/lock/reserve/enqueue pass, dispatching at most
// d.batchLimit work items.
func (d *Dispatcher) tick(ctx context.Context) error {
	candidates, err := d.repo.FetchDue(ctx, d.batchLimit)
	if err != nil {
		return fmt.Errorf("dispatcher: fetch_due: %w", err)
	}

	dispatched := 0
	for _, candidate := range candidates {
		if dispatched >= d.batchLimit {
			break
		}

		locked, err := d.acquireLock(ctx, candidate.Domain)
		if err != nil {
			d.log.Warn().Err(err).Str("domain", candidate.Domain).Msg("lock check failed")
			continue
		}
		if !locked {
			continue
		}

		if d.anomaly.OverQuota(ctx, candidate.Domain) {
			d.releaseLock(ctx, candidate.Domain)
			continue
		}

		allowed, err := d.robots.Allowed(ctx, candidate.URL)
		if err != nil {
			d.log.Warn().Err(err).Str("url", candidate.URL).Msg("robots check failed")
			d.releaseLock(ctx, candidate.Domain)
			continue
		}
		if !allowed {
			if err := d.repo.MarkBlocked(ctx, candidate.URL, "robots"); err != nil {
				d.log.Error().Err(err).Str("url", candidate.URL).Msg("mark_blocked failed")
			}
			d.releaseLock(ctx, candidate.Domain)
			continue
		}

		reserved, err := d.repo.Reserve(ctx, candidate.URL)
		if err != nil {
			d.log.Error().Err(err).Str("url", candidate.URL).Msg("reserve failed")
			d.releaseLock(ctx, candidate.Domain)
			continue
		}
		if !reserved {
			d.releaseLock(ctx, candidate.Domain)
			continue
		}

		item := model.WorkItem{URL: candidate.URL, Depth: candidate.Depth}
		if err := d.producer.Produce(ctx, item); err != nil {
			d.log.Error().Err(err).Str("url", candidate.URL).Msg("enqueue failed")
			continue
		}

		dispatched++
	}

	return nil
}

// acquireLock attempts the cross-process politeness mutex for domain. It is
// not a data lock: its expiry before a worker finishes is acceptable, since
// it only rate-shapes concurrent crawls of the same host.
func (d *Dispatcher) acquireLock(ctx context.Context, domain string) (bool, error) {
	if d.redis == nil {
		return true, nil
	}
	return d.redis.SetNX(ctx, lockKey(domain), 1, d.lockTTL).Result()
}

func (d *Dispatcher) releaseLock(ctx context.Context, domain string) {
	if d.redis == nil {
		return
	}
	_ = d.redis.Del(ctx, lockKey(domain)).Err()
}
