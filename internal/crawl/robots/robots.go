// Package robots implements the RobotsGate: per-host robots.txt fetching,
// caching and evaluation, grounded on the teacher's CrawlingRules but
// generalized from an in-process robotstxt.Group cache into a Redis-backed
// one keyed by host, matching the spec's ROBOTS_CACHE_TTL semantics.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/temoto/robotstxt"
)

const robotsTxtPath = "/robots.txt"

// Gate evaluates whether a URL may be fetched under the configured
// user-agent, consulting a Redis cache of raw robots.txt bodies before
// reaching out to the network.
type Gate struct {
	userAgent string
	client    *http.Client
	redis     *redis.Client
	ttl       time.Duration
}

// New creates a Gate. client is used to fetch robots.txt bodies;
// redisClient backs the per-host cache.
func New(userAgent string, client *http.Client, redisClient *redis.Client, ttl time.Duration) *Gate {
	return &Gate{userAgent: userAgent, client: client, redis: redisClient, ttl: ttl}
}

func cacheKey(host string) string {
	return fmt.Sprintf("robots:%s", host)
}

// Allowed reports whether target may be fetched under the gate's
// user-agent. A disallowed robots.txt terminally blocks the URL (the
// caller maps this to the spec's "blocked" status); a missing or
// unreachable robots.txt is permissive.
func (g *Gate) Allowed(ctx context.Context, target string) (bool, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return false, fmt.Errorf("robots: parse %s: %w", target, err)
	}

	body, err := g.bodyForHost(ctx, parsed)
	if err != nil {
		// Network error: permissive without caching, so the next call retries.
		return true, nil
	}
	if body == "" {
		// A cached "not found"/error response: permissive, cached for TTL.
		return true, nil
	}

	data, err := robotstxt.FromString(body)
	if err != nil {
		return true, nil
	}
	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true, nil
	}
	return group.Test(parsed.RequestURI()), nil
}

// bodyForHost returns the raw robots.txt body for parsed's host, consulting
// the cache first. An empty string with a nil error means "no rules" (404
// or similar), cached for TTL per the spec.
func (g *Gate) bodyForHost(ctx context.Context, parsed *url.URL) (string, error) {
	key := cacheKey(parsed.Host)

	if g.redis != nil {
		if cached, err := g.redis.Get(ctx, key).Result(); err == nil {
			return cached, nil
		}
	}

	robotsURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: robotsTxtPath}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		g.cache(ctx, key, "")
		return "", nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	body := string(raw)
	g.cache(ctx, key, body)
	return body, nil
}

func (g *Gate) cache(ctx context.Context, key, body string) {
	if g.redis == nil {
		return
	}
	// Cache writes are best-effort: a failure here just means the next
	// lookup re-fetches, never a failed request.
	_ = g.redis.Set(ctx, key, body, g.ttl).Err()
}
