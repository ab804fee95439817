package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

// Fake is an in-memory Repository, grounded on the teacher's
// sync.RWMutex-guarded memoryCache: a thread-safe map standing in for the
// database so dispatcher/worker/search-engine tests don't need Postgres.
type Fake struct {
	mu              sync.RWMutex
	urls            map[string]model.URLRecord
	pages           map[string]model.PageRecord
	scoring         Scoring
	defaultInterval time.Duration
	errorInterval   time.Duration
	maxRetries      int
	now             func() time.Time
}

// NewFake creates an empty in-memory repository.
func NewFake(scoring Scoring, defaultInterval, errorInterval time.Duration, maxRetries int) *Fake {
	return &Fake{
		urls:            make(map[string]model.URLRecord),
		pages:           make(map[string]model.PageRecord),
		scoring:         scoring,
		defaultInterval: defaultInterval,
		errorInterval:   errorInterval,
		maxRetries:      maxRetries,
		now:             time.Now,
	}
}

var _ Repository = (*Fake)(nil)

func (f *Fake) Register(_ context.Context, url, domain string, depth int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.urls[url]; exists {
		return nil
	}
	f.urls[url] = model.URLRecord{
		URL:         url,
		Domain:      domain,
		Depth:       depth,
		Status:      model.StatusPending,
		Score:       f.scoring.InitialScore(depth),
		NextCrawlAt: f.now(),
		UpdatedAt:   f.now(),
	}
	return nil
}

func (f *Fake) FetchDue(_ context.Context, limit int) ([]model.URLRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	now := f.now()
	var due []model.URLRecord
	for _, rec := range f.urls {
		if !isEligibleStatus(rec.Status) {
			continue
		}
		if rec.NextCrawlAt.After(now) {
			continue
		}
		due = append(due, rec)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Score != due[j].Score {
			return due[i].Score > due[j].Score
		}
		return due[i].NextCrawlAt.Before(due[j].NextCrawlAt)
	})
	max := limit * 5
	if max > len(due) {
		max = len(due)
	}
	return due[:max], nil
}

func isEligibleStatus(s model.URLStatus) bool {
	return s == model.StatusPending || s == model.StatusDone || s == model.StatusError
}

func (f *Fake) Reserve(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.urls[url]
	if !ok || !isEligibleStatus(rec.Status) {
		return false, nil
	}
	rec.Status = model.StatusCrawling
	rec.UpdatedAt = f.now()
	f.urls[url] = rec
	return true, nil
}

func (f *Fake) MarkBlocked(_ context.Context, url, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.urls[url]
	if !ok {
		return nil
	}
	rec.Status = model.StatusBlocked
	rec.BlockedReason = reason
	rec.UpdatedAt = f.now()
	f.urls[url] = rec
	return nil
}

func (f *Fake) Complete(_ context.Context, url string, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.urls[url]
	if !ok {
		return nil
	}
	now := f.now()
	rec.LastCrawledAt = now
	rec.UpdatedAt = now

	if success {
		rec.Status = model.StatusDone
		rec.ErrorCount = 0
		rec.Score = f.scoring.SuccessScore(rec.Depth)
		rec.NextCrawlAt = now.Add(f.defaultInterval)
		f.urls[url] = rec
		return nil
	}

	rec.ErrorCount++
	rec.Score = f.scoring.FailureScore(rec.Score)
	rec.Status = model.StatusError
	rec.NextCrawlAt = now.Add(f.errorInterval)

	if rec.ErrorCount > f.maxRetries {
		rec.Status = model.StatusDeleted
		deletedAt := now
		rec.DeletedAt = &deletedAt
		f.urls[url] = rec
		delete(f.pages, url)
		return nil
	}
	f.urls[url] = rec
	return nil
}

func (f *Fake) ReapStaleReservations(_ context.Context, olderThan time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := f.now().Add(-olderThan)
	n := 0
	for url, rec := range f.urls {
		if rec.Status == model.StatusCrawling && rec.UpdatedAt.Before(cutoff) {
			rec.Status = model.StatusPending
			rec.UpdatedAt = f.now()
			f.urls[url] = rec
			n++
		}
	}
	return n, nil
}

func (f *Fake) UpsertPage(_ context.Context, page model.PageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	page.UpdatedAt = f.now()
	page.CrawledAt = f.now()
	f.pages[page.URL] = page
	return nil
}

func (f *Fake) StatusCounts(_ context.Context) (map[model.URLStatus]int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	counts := make(map[model.URLStatus]int)
	for _, rec := range f.urls {
		counts[rec.Status]++
	}
	return counts, nil
}

func (f *Fake) TopDomains(_ context.Context, limit int) ([]DomainStat, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	byDomain := make(map[string]*DomainStat)
	for _, rec := range f.urls {
		stat, ok := byDomain[rec.Domain]
		if !ok {
			stat = &DomainStat{Domain: rec.Domain}
			byDomain[rec.Domain] = stat
		}
		stat.Count++
		if !rec.LastCrawledAt.IsZero() {
			last := rec.LastCrawledAt
			if stat.LastCrawledAt == nil || last.After(*stat.LastCrawledAt) {
				stat.LastCrawledAt = &last
			}
		}
	}
	var stats []DomainStat
	for _, s := range byDomain {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	if limit < len(stats) {
		stats = stats[:limit]
	}
	return stats, nil
}

func (f *Fake) QueueHead(_ context.Context, limit int) ([]model.URLRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var eligible []model.URLRecord
	for _, rec := range f.urls {
		if isEligibleStatus(rec.Status) {
			eligible = append(eligible, rec)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].NextCrawlAt.Before(eligible[j].NextCrawlAt)
	})
	if limit < len(eligible) {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

// Get is a test helper exposing the raw stored record.
func (f *Fake) Get(url string) (model.URLRecord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rec, ok := f.urls[url]
	return rec, ok
}

// Page is a test helper exposing the raw stored page.
func (f *Fake) Page(url string) (model.PageRecord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rec, ok := f.pages[url]
	return rec, ok
}

// SetNow overrides the clock used by the fake, for deterministic tests.
func (f *Fake) SetNow(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
