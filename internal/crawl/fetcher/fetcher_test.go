package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsBodyForHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 2*time.Second)
	result, err := f.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(result.Body) != "<html><body>hi</body></html>" {
		t.Errorf("unexpected body: %s", result.Body)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 2*time.Second)
	_, err := f.Fetch(context.Background(), server.URL+"/data.json")
	if err != ErrNotHTML {
		t.Fatalf("expected ErrNotHTML, got %v", err)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 2*time.Second)
	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	if err == nil {
		t.Fatal("expected error for 404 status")
	}
}

func TestFetchHonorsContextTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, server.URL+"/slow")
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}
