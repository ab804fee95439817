package anomaly

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestIsAnomalousPathSegmentRepeats(t *testing.T) {
	gate := New(256, 3, 1000, nil)
	if !gate.IsAnomalous("https://x.com/a/a/a/a") {
		t.Error("expected /a/a/a/a to be anomalous with MAX_PATH_SEGMENT_REPEATS=3")
	}
	if gate.IsAnomalous("https://x.com/a/b/c/d") {
		t.Error("expected /a/b/c/d to NOT be anomalous")
	}
}

func TestIsAnomalousLength(t *testing.T) {
	gate := New(20, 3, 1000, nil)
	long := "https://x.com/" + strings.Repeat("a", 30)
	if !gate.IsAnomalous(long) {
		t.Error("expected over-length URL to be anomalous")
	}
}

func TestOverQuota(t *testing.T) {
	redisClient := testRedis(t)
	gate := New(256, 3, 2, redisClient)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		gate.RegisterSuccess(ctx, "x.com")
	}
	if !gate.OverQuota(ctx, "x.com") {
		t.Error("expected over quota after 3 successes with MAX_URLS_PER_DOMAIN=2")
	}
}

func TestNotOverQuotaByDefault(t *testing.T) {
	redisClient := testRedis(t)
	gate := New(256, 3, 1000, redisClient)
	if gate.OverQuota(context.Background(), "fresh.com") {
		t.Error("expected fresh domain to not be over quota")
	}
}
