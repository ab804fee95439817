package dispatcher

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
	"github.com/corvuscrawl/seeker/internal/crawl/repository"
	"github.com/corvuscrawl/seeker/internal/crawl/robots"
	"github.com/corvuscrawl/seeker/internal/queue"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestTickDispatchesAllowedDueURLs(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	scoring := repository.Scoring{BaseScore: 100, DepthPenalty: 10, ErrorPenalty: 20}
	repo := repository.NewFake(scoring, 24*time.Hour, time.Hour, 5)
	if err := repo.Register(context.Background(), server.URL+"/a", server.URL, 0); err != nil {
		t.Fatalf("register: %v", err)
	}

	redisClient := testRedis(t)
	anomalyGate := anomaly.New(256, 3, 1000, redisClient)
	robotsGate := robots.New("test-agent", server.Client(), redisClient, time.Hour)
	q := queue.NewChannelQueue(1)

	d := New(repo, anomalyGate, robotsGate, q, redisClient, time.Second, 10, time.Minute, zerolog.Nop())

	if err := d.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	item, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("expected a dispatched work item: %v", err)
	}
	if item.URL != server.URL+"/a" {
		t.Errorf("dispatched %s, want %s/a", item.URL, server.URL)
	}
}

func TestTickSkipsDomainUnderAnomalyQuota(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	scoring := repository.Scoring{BaseScore: 100, DepthPenalty: 10, ErrorPenalty: 20}
	repo := repository.NewFake(scoring, 24*time.Hour, time.Hour, 5)
	if err := repo.Register(context.Background(), server.URL+"/a", server.URL, 0); err != nil {
		t.Fatalf("register: %v", err)
	}

	redisClient := testRedis(t)
	anomalyGate := anomaly.New(256, 3, 0, redisClient)
	for i := 0; i < 2; i++ {
		anomalyGate.RegisterSuccess(context.Background(), server.URL)
	}
	robotsGate := robots.New("test-agent", server.Client(), redisClient, time.Hour)
	q := queue.NewChannelQueue(1)

	d := New(repo, anomalyGate, robotsGate, q, redisClient, time.Second, 10, time.Minute, zerolog.Nop())
	if err := d.tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Consume(ctx); err == nil {
		t.Fatal("expected no work item dispatched for over-quota domain")
	}
}
