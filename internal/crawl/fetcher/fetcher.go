// Package fetcher implements the HTTP fetch step of the crawl pipeline:
// a context-aware GET with retry/backoff and content-type enforcement,
// grounded on the teacher's stdHttpFetcher (crawler/fetcher/fetcher.go),
// generalized from an unconditional body handoff to a Fetcher that rejects
// non-HTML responses before the caller ever touches the body.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// ErrNotHTML is returned when the response content-type isn't HTML.
var ErrNotHTML = fmt.Errorf("fetcher: response is not HTML")

// Result carries a fetched page body along with timing and the final
// resolved URL (after any redirects).
type Result struct {
	Body     []byte
	FinalURL string
	Elapsed  time.Duration
}

// Fetcher performs retried, timeout-bounded HTTP GETs under a fixed
// User-Agent, rejecting non-HTML responses.
type Fetcher struct {
	userAgent string
	client    *http.Client
}

// New creates a Fetcher with the given user agent and per-request timeout.
// Retries (at most 3) apply exponential jittered backoff to temporary errors
// and to 502, 503 and 504 responses; other statuses are not retried.
func New(userAgent string, timeout time.Duration) *Fetcher {
	transport := rehttp.NewTransport(
		http.DefaultTransport,
		rehttp.RetryAll(
			rehttp.RetryMaxRetries(3),
			rehttp.RetryAny(rehttp.RetryTemporaryErr(), rehttp.RetryStatuses(502, 503, 504)),
		),
		rehttp.ExpJitterDelay(1*time.Second, 10*time.Second),
	)
	client := &http.Client{Timeout: timeout, Transport: transport}
	return &Fetcher{userAgent: userAgent, client: client}
}

// Fetch performs a GET against target, enforcing ctx's deadline, and
// returns the body only if the response is successful and HTML.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("fetcher: get %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetcher: %s returned %s", target, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, ErrNotHTML
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body of %s: %w", target, err)
	}

	return &Result{Body: body, FinalURL: resp.Request.URL.String(), Elapsed: elapsed}, nil
}
