package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/crawl/anomaly"
	"github.com/corvuscrawl/seeker/internal/crawl/fetcher"
	"github.com/corvuscrawl/seeker/internal/crawl/htmlparse"
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/index"
	"github.com/corvuscrawl/seeker/internal/queue"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestProcessSuccessUpsertsPageAndRegistersLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Start</title></head><body><a href="/next">next</a></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scoring := repository.Scoring{BaseScore: 100, DepthPenalty: 10, ErrorPenalty: 20}
	repo := repository.NewFake(scoring, 24*time.Hour, time.Hour, 5)
	if err := repo.Register(context.Background(), server.URL+"/start", server.URL, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := repo.Reserve(context.Background(), server.URL+"/start"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	redisClient := testRedis(t)
	anomalyGate := anomaly.New(256, 3, 1000, redisClient)
	robotsGate := robots.New("test-agent", server.Client(), redisClient, time.Hour)
	f := fetcher.New("test-agent", 2*time.Second)
	parser := htmlparse.New()
	idx := index.New(repo)

	q := queue.NewChannelQueue(1)
	pool := New(q, f, parser, idx, repo, anomalyGate, robotsGate, 1, 2*time.Second, 3, zerolog.Nop())

	pool.process(context.Background(), server.URL+"/start", 0)

	page, ok := repo.Page(server.URL + "/start")
	if !ok {
		t.Fatal("expected page to be indexed")
	}
	if page.Title != "Start" {
		t.Errorf("title = %q, want Start", page.Title)
	}

	record, ok := repo.Get(server.URL + "/next")
	if !ok {
		t.Fatal("expected /next link to be registered")
	}
	if record.Depth != 1 {
		t.Errorf("depth = %d, want 1", record.Depth)
	}

	completed, ok := repo.Get(server.URL + "/start")
	if !ok || completed.Status != "done" {
		t.Errorf("start url status = %+v, want done", completed)
	}
}

func TestProcessFailureMarksErrorAndSkipsLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scoring := repository.Scoring{BaseScore: 100, DepthPenalty: 10, ErrorPenalty: 20}
	repo := repository.NewFake(scoring, 24*time.Hour, time.Hour, 5)
	if err := repo.Register(context.Background(), server.URL+"/missing", server.URL, 0); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := repo.Reserve(context.Background(), server.URL+"/missing"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	redisClient := testRedis(t)
	anomalyGate := anomaly.New(256, 3, 1000, redisClient)
	robotsGate := robots.New("test-agent", server.Client(), redisClient, time.Hour)
	f := fetcher.New("test-agent", 2*time.Second)
	parser := htmlparse.New()
	idx := index.New(repo)

	q := queue.NewChannelQueue(1)
	pool := New(q, f, parser, idx, repo, anomalyGate, robotsGate, 1, 2*time.Second, 3, zerolog.Nop())

	pool.process(context.Background(), server.URL+"/missing", 0)

	record, ok := repo.Get(server.URL + "/missing")
	if !ok {
		t.Fatal("expected url record to still exist")
	}
	if record.Status != "error" {
		t.Errorf("status = %s, want error", record.Status)
	}
	if record.ErrorCount != 1 {
		t.Errorf("error_count = %d, want 1", record.ErrorCount)
	}
}

func TestRegisterLinksStopsAtMaxDepth(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	scoring := repository.Scoring{BaseScore: 100, DepthPenalty: 10, ErrorPenalty: 20}
	repo := repository.NewFake(scoring, 24*time.Hour, time.Hour, 5)

	redisClient := testRedis(t)
	anomalyGate := anomaly.New(256, 3, 1000, redisClient)
	robotsGate := robots.New("test-agent", server.Client(), redisClient, time.Hour)
	f := fetcher.New("test-agent", 2*time.Second)
	parser := htmlparse.New()
	idx := index.New(repo)

	q := queue.NewChannelQueue(1)
	pool := New(q, f, parser, idx, repo, anomalyGate, robotsGate, 1, 2*time.Second, 2, zerolog.Nop())

	pool.registerLinks(context.Background(), []string{server.URL + "/deep"}, 2)

	if _, ok := repo.Get(server.URL + "/deep"); ok {
		t.Error("expected link beyond max depth to not be registered")
	}
}
