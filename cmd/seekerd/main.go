// Command seekerd runs the crawl control plane (dispatcher, worker pool,
// reaper) and the search HTTP API in a single process. Grounded on the
// teacher's signal-driven shutdown in crawler/crawler.go, generalized from
// a single recursive crawl run to three long-lived activities sharing the
// process per spec.md §5.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/api"
	"github.com/corvuscrawl/seeker/internal/config"
	"github.com/corvuscrawl/seeker/internal/crawl/anomaly"
	"github.com/corvuscrawl/seeker/internal/crawl/dispatcher"
	"github.com/corvuscrawl/seeker/internal/crawl/fetcher"
	"github.com/corvuscrawl/seeker/internal/crawl/htmlparse"
	"github.com/corvuscrawl/seeker/internal/crawl/reaper"
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/crawl/worker"
	"github.com/corvuscrawl/seeker/internal/dbx"
	"github.com/corvuscrawl/seeker/internal/index"
	"github.com/corvuscrawl/seeker/internal/queue"
	"github.com/corvuscrawl/seeker/internal/search/engine"
	"github.com/corvuscrawl/seeker/internal/search/intent"
	"github.com/corvuscrawl/seeker/internal/search/rcache"
	"github.com/corvuscrawl/seeker/internal/search/store"
	"github.com/corvuscrawl/seeker/internal/search/synonyms"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	settings := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	db, err := dbx.Open(ctx, settings.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(settings.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	scoring := repository.Scoring{
		BaseScore:    settings.BaseScore,
		DepthPenalty: settings.DepthPenalty,
		ErrorPenalty: settings.ErrorPenalty,
	}
	repo := repository.New(db, scoring, settings.DefaultInterval, settings.ErrorInterval, settings.MaxRetries)

	anomalyGate := anomaly.New(settings.MaxURLLength, settings.MaxPathSegmentRepeats, settings.MaxURLsPerDomain, redisClient)
	robotsGate := robots.New(settings.UserAgent, &http.Client{Timeout: settings.RequestTimeout}, redisClient, settings.RobotsCacheTTL)

	workQueue := queue.NewRedisQueue(redisClient)

	dispatch := dispatcher.New(
		repo, anomalyGate, robotsGate, workQueue, redisClient,
		settings.DispatchTickInterval, settings.DispatchBatchLimit, settings.DomainLockTTL, log,
	)

	f := fetcher.New(settings.UserAgent, settings.RequestTimeout)
	parser := htmlparse.New()
	idx := index.New(repo)
	workers := worker.New(
		workQueue, f, parser, idx, repo, anomalyGate, robotsGate,
		settings.WorkerConcurrency, settings.JobTimeout, settings.MaxDepth, log,
	)

	reap := reaper.New(repo, 2*settings.JobTimeout, settings.JobTimeout, log)

	searchStore := store.New(db)
	intentExpander := intent.New(searchStore)
	synonymExpander := synonyms.New(settings.SynonymFilePath, log)
	resultCache := rcache.New(redisClient, settings.ResultCacheTTL, log)
	searchEngine := engine.New(searchStore, intentExpander, synonymExpander, resultCache, log)

	server := api.New(searchEngine, repo, anomalyGate, robotsGate, log)
	httpServer := &http.Server{Addr: ":8080", Handler: server}

	go dispatch.Run(ctx)
	go workers.Run(ctx)
	go reap.Run(ctx)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
