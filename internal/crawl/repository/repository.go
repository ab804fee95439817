// Package repository owns all durable state transitions for crawled URLs,
// their pages and images (search and click logs are written by
// internal/search/store). It is the pure data-access
// layer: it imports neither the dispatcher nor the worker, so that those
// two packages can depend on it without forming a cycle between scheduler
// and worker (see DESIGN.md).
package repository

import (
	"context"
	"time"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

// Repository is the narrow contract the dispatcher, worker and search
// engine consume. Depending on the interface rather than the concrete pgx
// implementation keeps those packages testable against a fake and keeps
// the no-cycle rule intact.
type Repository interface {
	// Register inserts url as a pending row at depth if absent. Idempotent.
	Register(ctx context.Context, url, domain string, depth int) error

	// FetchDue returns up to limit rows eligible for (re)crawl, over-fetched
	// 5x so the dispatcher can filter by lock/quota/robots before committing
	// to a batch.
	FetchDue(ctx context.Context, limit int) ([]model.URLRecord, error)

	// Reserve attempts the optimistic transition to "crawling". It reports
	// whether the caller won the race.
	Reserve(ctx context.Context, url string) (bool, error)

	// MarkBlocked transitions url to the terminal-until-manual "blocked"
	// state, recording reason.
	MarkBlocked(ctx context.Context, url, reason string) error

	// Complete records the outcome of a crawl attempt, applying the score,
	// retry and scheduling rules from the specification.
	Complete(ctx context.Context, url string, success bool) error

	// ReapStaleReservations resets any "crawling" row whose UpdatedAt is
	// older than olderThan back to "pending".
	ReapStaleReservations(ctx context.Context, olderThan time.Duration) (int, error)

	// UpsertPage transactionally upserts a page, its image assets and its
	// page-image links, replacing the page's old links wholesale.
	UpsertPage(ctx context.Context, page model.PageRecord) error

	// StatusCounts returns the number of URLs in each status.
	StatusCounts(ctx context.Context) (map[model.URLStatus]int, error)

	// TopDomains returns the domains with the most crawled URLs.
	TopDomains(ctx context.Context, limit int) ([]DomainStat, error)

	// QueueHead returns the next URLs scheduled to be crawled, by priority.
	QueueHead(ctx context.Context, limit int) ([]model.URLRecord, error)
}

// DomainStat summarizes crawl activity for a single domain.
type DomainStat struct {
	Domain        string
	Count         int
	LastCrawledAt *time.Time
}

// Scoring reproduces the spec's score formulas so both the pgx-backed
// implementation and its fake compute identical values.
type Scoring struct {
	BaseScore    float64
	DepthPenalty float64
	ErrorPenalty float64
}

// InitialScore is the priority assigned to a freshly registered URL.
func (s Scoring) InitialScore(depth int) float64 {
	return s.BaseScore - float64(depth)*s.DepthPenalty
}

// SuccessScore is the priority a URL is reset to after a successful crawl.
func (s Scoring) SuccessScore(depth int) float64 {
	return s.InitialScore(depth)
}

// FailureScore decays current by the configured error penalty.
func (s Scoring) FailureScore(current float64) float64 {
	return current - s.ErrorPenalty
}
