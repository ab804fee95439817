// Package worker implements the fetch→parse→index→state-update pipeline
// that runs per work item. Grounded on the teacher's semaphore-bounded
// goroutine pool in crawlPage (crawler/crawler.go), generalized from a
// single crawl run's fixed-size worker set into a long-lived pool consuming
// from the shared work queue for the process lifetime.
package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/crawl/anomaly"
	"github.com/corvuscrawl/seeker/internal/crawl/fetcher"
	"github.com/corvuscrawl/seeker/internal/crawl/model"
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/index"
	"github.com/corvuscrawl/seeker/internal/queue"
)

// Parser is the black-box capability the Worker depends on: raw HTML in,
// a structured PageRecord out. Concrete variants (e.g. site-specific
// extractors) may be substituted without touching the Worker.
type Parser interface {
	Parse(pageURL string, html []byte) (model.PageRecord, error)
}

// Pool runs a fixed number of goroutines, each pulling work items from a
// queue.Consumer and driving them through fetch, parse, index and
// state-update.
type Pool struct {
	consumer queue.Consumer
	fetcher  *fetcher.Fetcher
	parser   Parser
	indexer  *index.Indexer
	repo     repository.Repository
	anomaly  *anomaly.Gate
	robots   *robots.Gate

	concurrency int
	jobTimeout  time.Duration
	maxDepth    int

	log zerolog.Logger
}

// New creates a worker Pool.
func New(
	consumer queue.Consumer,
	f *fetcher.Fetcher,
	parser Parser,
	indexer *index.Indexer,
	repo repository.Repository,
	anomalyGate *anomaly.Gate,
	robotsGate *robots.Gate,
	concurrency int,
	jobTimeout time.Duration,
	maxDepth int,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		consumer:    consumer,
		fetcher:     f,
		parser:      parser,
		indexer:     indexer,
		repo:        repo,
		anomaly:     anomalyGate,
		robots:      robotsGate,
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
		maxDepth:    maxDepth,
		log:         log.With().Str("component", "worker").Logger(),
	}
}

// Run starts the pool's goroutines, blocking until ctx is cancelled and
// every goroutine has returned.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context) {
	for {
		item, err := p.consumer.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn().Err(err).Msg("consume failed")
			continue
		}
		p.process(ctx, item.URL, item.Depth)
	}
}

func (p *Pool) process(ctx context.Context, pageURL string, depth int) {
	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	result, err := p.fetcher.Fetch(jobCtx, pageURL)
	if err != nil {
		p.log.Info().Err(err).Str("url", pageURL).Msg("fetch failed")
		p.completeFailure(jobCtx, pageURL)
		return
	}

	record, err := p.parser.Parse(result.FinalURL, result.Body)
	if err != nil {
		p.log.Info().Err(err).Str("url", pageURL).Msg("parse failed")
		p.completeFailure(jobCtx, pageURL)
		return
	}

	if err := p.indexer.Upsert(jobCtx, record); err != nil {
		p.log.Error().Err(err).Str("url", pageURL).Msg("index upsert failed")
		p.completeFailure(jobCtx, pageURL)
		return
	}

	p.registerLinks(jobCtx, record.Links, depth)

	if err := p.repo.Complete(jobCtx, pageURL, true); err != nil {
		p.log.Error().Err(err).Str("url", pageURL).Msg("complete(success) failed")
		return
	}
	p.anomaly.RegisterSuccess(jobCtx, domainOf(pageURL))
}

func (p *Pool) completeFailure(ctx context.Context, pageURL string) {
	if err := p.repo.Complete(ctx, pageURL, false); err != nil {
		p.log.Error().Err(err).Str("url", pageURL).Msg("complete(failure) failed")
	}
}

// registerLinks applies depth bounding plus the anomaly and robots gates to
// each outbound link before registering it for future crawling.
func (p *Pool) registerLinks(ctx context.Context, links []string, depth int) {
	nextDepth := depth + 1
	if nextDepth > p.maxDepth {
		return
	}
	for _, link := range links {
		if p.anomaly.IsAnomalous(link) {
			continue
		}
		allowed, err := p.robots.Allowed(ctx, link)
		if err != nil || !allowed {
			continue
		}
		if err := p.repo.Register(ctx, link, domainOf(link), nextDepth); err != nil {
			p.log.Warn().Err(err).Str("url", link).Msg("register link failed")
		}
	}
}

func domainOf(target string) string {
	parsed, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return parsed.Host
}
