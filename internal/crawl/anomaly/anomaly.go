// Package anomaly implements the AnomalyGate: spider-trap detection via URL
// shape and a per-domain daily crawl quota, grounded on the recovered
// anomaly_detector.py and generalized to the spec's length/repetition
// thresholds.
package anomaly

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const domainQuotaTTL = 24 * time.Hour

// Gate rejects anomalous URLs and enforces a sliding 24h per-domain quota.
type Gate struct {
	maxURLLength          int
	maxPathSegmentRepeats int
	maxURLsPerDomain      int64
	redis                 *redis.Client
}

// New creates a Gate using the given thresholds, backed by redisClient for
// the per-domain quota counter.
func New(maxURLLength, maxPathSegmentRepeats int, maxURLsPerDomain int64, redisClient *redis.Client) *Gate {
	return &Gate{
		maxURLLength:          maxURLLength,
		maxPathSegmentRepeats: maxPathSegmentRepeats,
		maxURLsPerDomain:      maxURLsPerDomain,
		redis:                 redisClient,
	}
}

// IsAnomalous reports whether target looks like a spider trap: too long, or
// containing a path segment repeated MaxPathSegmentRepeats times or more in
// a row (e.g. calendar-style "/cal/cal/cal/cal").
func (g *Gate) IsAnomalous(target string) bool {
	if len(target) > g.maxURLLength {
		return true
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}

	var segments []string
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return false
	}

	repeatCount := 0
	var last string
	for _, seg := range segments {
		if seg == last {
			repeatCount++
		} else {
			repeatCount = 0
		}
		if repeatCount >= g.maxPathSegmentRepeats {
			return true
		}
		last = seg
	}
	return false
}

func quotaKey(domain string) string {
	return fmt.Sprintf("domain:count:%s", domain)
}

// OverQuota reports whether domain has exceeded its daily crawl budget.
func (g *Gate) OverQuota(ctx context.Context, domain string) bool {
	if g.redis == nil {
		return false
	}
	count, err := g.redis.Get(ctx, quotaKey(domain)).Int64()
	if err != nil {
		// Missing key or unavailable cache: not over quota.
		return false
	}
	return count > g.maxURLsPerDomain
}

// RegisterSuccess increments domain's crawl counter and refreshes its 24h
// expiry, so the count lapses 24h after the domain's most recent success.
func (g *Gate) RegisterSuccess(ctx context.Context, domain string) {
	if g.redis == nil {
		return
	}
	key := quotaKey(domain)
	pipe := g.redis.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, domainQuotaTTL)
	// Best-effort: a failed quota increment never fails the crawl itself.
	_, _ = pipe.Exec(ctx)
}
