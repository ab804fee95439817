package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestGateDisallowsPathRule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /baz\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gate := New("test-agent", server.Client(), testRedis(t), time.Hour)

	allowed, err := gate.Allowed(context.Background(), server.URL+"/foo")
	if err != nil || !allowed {
		t.Fatalf("expected /foo allowed, got allowed=%v err=%v", allowed, err)
	}
	allowed, err = gate.Allowed(context.Background(), server.URL+"/baz/thing")
	if err != nil || allowed {
		t.Fatalf("expected /baz/thing disallowed, got allowed=%v err=%v", allowed, err)
	}
}

func TestGateMissingRobotsIsPermissive(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	gate := New("test-agent", server.Client(), testRedis(t), time.Hour)

	allowed, err := gate.Allowed(context.Background(), server.URL+"/anything")
	if err != nil || !allowed {
		t.Fatalf("expected permissive default, got allowed=%v err=%v", allowed, err)
	}
}

func TestGateCachesBodyAcrossCalls(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /baz\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gate := New("test-agent", server.Client(), testRedis(t), time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := gate.Allowed(context.Background(), server.URL+"/foo"); err != nil {
			t.Fatalf("allowed: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("expected exactly 1 fetch of robots.txt, got %d", hits)
	}
}
