package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
	"github.com/corvuscrawl/seeker/internal/dbx"
)

// PostgresRepository is the pgx-backed Repository implementation. Every
// method is a single scoped transaction: it commits on clean exit, rolls
// back on any failure, and always releases its connection (see dbx.WithTx).
type PostgresRepository struct {
	db              *dbx.DB
	scoring         Scoring
	defaultInterval time.Duration
	errorInterval   time.Duration
	maxRetries      int
}

// New creates a PostgresRepository bound to db, using scoring to compute
// priority scores and the given retry/interval policy on completion.
func New(db *dbx.DB, scoring Scoring, defaultInterval, errorInterval time.Duration, maxRetries int) *PostgresRepository {
	return &PostgresRepository{
		db:              db,
		scoring:         scoring,
		defaultInterval: defaultInterval,
		errorInterval:   errorInterval,
		maxRetries:      maxRetries,
	}
}

var _ Repository = (*PostgresRepository)(nil)

// Register inserts url as pending at depth if it is not already present.
func (r *PostgresRepository) Register(ctx context.Context, url, domain string, depth int) error {
	score := r.scoring.InitialScore(depth)
	return r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO crawl_urls (url, domain, depth, status, next_crawl_at, score, error_count, updated_at)
			VALUES ($1, $2, $3, 'pending', now(), $4, 0, now())
			ON CONFLICT (url) DO NOTHING
		`, url, domain, depth, score)
		if err != nil {
			return fmt.Errorf("repository: register %s: %w", url, err)
		}
		return nil
	})
}

// FetchDue returns up to limit eligible rows, over-fetched 5x.
func (r *PostgresRepository) FetchDue(ctx context.Context, limit int) ([]model.URLRecord, error) {
	var rows []model.URLRecord
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		result, err := tx.Query(ctx, `
			SELECT url, domain, depth, status, score, error_count,
			       next_crawl_at, last_crawled_at, updated_at, blocked_reason
			FROM crawl_urls
			WHERE status IN ('pending', 'done', 'error') AND next_crawl_at <= now()
			ORDER BY score DESC, next_crawl_at ASC
			LIMIT $1
		`, limit*5)
		if err != nil {
			return fmt.Errorf("repository: fetch_due: %w", err)
		}
		defer result.Close()
		for result.Next() {
			var rec model.URLRecord
			var lastCrawled *time.Time
			if err := result.Scan(&rec.URL, &rec.Domain, &rec.Depth, &rec.Status, &rec.Score,
				&rec.ErrorCount, &rec.NextCrawlAt, &lastCrawled, &rec.UpdatedAt, &rec.BlockedReason); err != nil {
				return fmt.Errorf("repository: fetch_due scan: %w", err)
			}
			if lastCrawled != nil {
				rec.LastCrawledAt = *lastCrawled
			}
			rows = append(rows, rec)
		}
		return result.Err()
	})
	return rows, err
}

// Reserve is the optimistic CAS into "crawling".
func (r *PostgresRepository) Reserve(ctx context.Context, url string) (bool, error) {
	var ok bool
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE crawl_urls
			SET status = 'crawling', updated_at = now()
			WHERE url = $1 AND status IN ('pending', 'done', 'error')
		`, url)
		if err != nil {
			return fmt.Errorf("repository: reserve %s: %w", url, err)
		}
		ok = tag.RowsAffected() == 1
		return nil
	})
	return ok, err
}

// MarkBlocked moves url to the terminal "blocked" state.
func (r *PostgresRepository) MarkBlocked(ctx context.Context, url, reason string) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE crawl_urls SET status = 'blocked', blocked_reason = $2, updated_at = now()
			WHERE url = $1
		`, url, reason)
		if err != nil {
			return fmt.Errorf("repository: mark_blocked %s: %w", url, err)
		}
		return nil
	})
}

// Complete applies the success/failure outcome of a crawl attempt.
func (r *PostgresRepository) Complete(ctx context.Context, url string, success bool) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var errorCount, depth int
		var score float64
		row := tx.QueryRow(ctx, `SELECT error_count, depth, score FROM crawl_urls WHERE url = $1`, url)
		if err := row.Scan(&errorCount, &depth, &score); err != nil {
			return fmt.Errorf("repository: complete read %s: %w", url, err)
		}

		if success {
			_, err := tx.Exec(ctx, `
				UPDATE crawl_urls
				SET status = 'done', error_count = 0, score = $2,
				    last_crawled_at = now(), next_crawl_at = now() + $3::interval,
				    updated_at = now()
				WHERE url = $1
			`, url, r.scoring.SuccessScore(depth), fmt.Sprintf("%d seconds", int(r.defaultInterval.Seconds())))
			if err != nil {
				return fmt.Errorf("repository: complete success %s: %w", url, err)
			}
			return nil
		}

		newErrors := errorCount + 1
		newScore := r.scoring.FailureScore(score)
		if newErrors > r.maxRetries {
			_, err := tx.Exec(ctx, `
				UPDATE crawl_urls SET status = 'deleted', deleted_at = now(), updated_at = now() WHERE url = $1
			`, url)
			if err != nil {
				return fmt.Errorf("repository: complete delete %s: %w", url, err)
			}
			_, err = tx.Exec(ctx, `DELETE FROM web_pages WHERE url = $1`, url)
			if err != nil {
				return fmt.Errorf("repository: complete delete page %s: %w", url, err)
			}
			return nil
		}

		_, err := tx.Exec(ctx, `
			UPDATE crawl_urls
			SET status = 'error', error_count = $2, score = $3,
			    last_crawled_at = now(), next_crawl_at = now() + $4::interval,
			    updated_at = now()
			WHERE url = $1
		`, url, newErrors, newScore, fmt.Sprintf("%d seconds", int(r.errorInterval.Seconds())))
		if err != nil {
			return fmt.Errorf("repository: complete failure %s: %w", url, err)
		}
		return nil
	})
}

// ReapStaleReservations resets crawling rows older than olderThan to pending.
func (r *PostgresRepository) ReapStaleReservations(ctx context.Context, olderThan time.Duration) (int, error) {
	var n int
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE crawl_urls
			SET status = 'pending', updated_at = now()
			WHERE status = 'crawling' AND updated_at < now() - $1::interval
		`, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
		if err != nil {
			return fmt.Errorf("repository: reap: %w", err)
		}
		n = int(tag.RowsAffected())
		return nil
	})
	return n, err
}

// UpsertPage transactionally replaces a page's content, image assets and
// page-image links.
func (r *PostgresRepository) UpsertPage(ctx context.Context, page model.PageRecord) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO web_pages (url, title, content, category, published_at, search_text, representative_image_hash, updated_at, crawled_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (url) DO UPDATE SET
				title = EXCLUDED.title,
				content = EXCLUDED.content,
				category = EXCLUDED.category,
				published_at = COALESCE(EXCLUDED.published_at, web_pages.published_at),
				search_text = EXCLUDED.search_text,
				representative_image_hash = EXCLUDED.representative_image_hash,
				updated_at = now(),
				crawled_at = now()
		`, page.URL, page.Title, page.Content, page.Category, page.PublishedAt, page.SearchText, nullableString(page.RepresentativeImage))
		if err != nil {
			return fmt.Errorf("repository: upsert_page %s: %w", page.URL, err)
		}

		for _, img := range page.Images {
			_, err := tx.Exec(ctx, `
				INSERT INTO images (hash, canonical_url) VALUES ($1, $2)
				ON CONFLICT (hash) DO NOTHING
			`, img.Hash, img.CanonicalURL)
			if err != nil {
				return fmt.Errorf("repository: upsert image: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM page_images WHERE url = $1`, page.URL); err != nil {
			return fmt.Errorf("repository: clear page_images %s: %w", page.URL, err)
		}
		for _, img := range page.Images {
			_, err := tx.Exec(ctx, `
				INSERT INTO page_images (url, image_hash, alt_text, position) VALUES ($1, $2, $3, $4)
			`, page.URL, img.Hash, img.AltText, img.Position)
			if err != nil {
				return fmt.Errorf("repository: insert page_image %s: %w", page.URL, err)
			}
		}
		return nil
	})
}

// StatusCounts groups crawl_urls by status.
func (r *PostgresRepository) StatusCounts(ctx context.Context) (map[model.URLStatus]int, error) {
	counts := make(map[model.URLStatus]int)
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT status, COUNT(*) FROM crawl_urls GROUP BY status`)
		if err != nil {
			return fmt.Errorf("repository: status_counts: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var status model.URLStatus
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return fmt.Errorf("repository: status_counts scan: %w", err)
			}
			counts[status] = n
		}
		return rows.Err()
	})
	return counts, err
}

// TopDomains returns the busiest domains by crawled-URL count.
func (r *PostgresRepository) TopDomains(ctx context.Context, limit int) ([]DomainStat, error) {
	var stats []DomainStat
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT domain, COUNT(*), MAX(last_crawled_at)
			FROM crawl_urls GROUP BY domain ORDER BY COUNT(*) DESC LIMIT $1
		`, limit)
		if err != nil {
			return fmt.Errorf("repository: top_domains: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var s DomainStat
			if err := rows.Scan(&s.Domain, &s.Count, &s.LastCrawledAt); err != nil {
				return fmt.Errorf("repository: top_domains scan: %w", err)
			}
			stats = append(stats, s)
		}
		return rows.Err()
	})
	return stats, err
}

// QueueHead returns the next URLs scheduled to be crawled, by priority.
func (r *PostgresRepository) QueueHead(ctx context.Context, limit int) ([]model.URLRecord, error) {
	var rows []model.URLRecord
	err := r.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		result, err := tx.Query(ctx, `
			SELECT url, domain, depth, score, next_crawl_at, error_count
			FROM crawl_urls
			WHERE status IN ('pending', 'done', 'error')
			ORDER BY score DESC, next_crawl_at ASC
			LIMIT $1
		`, limit)
		if err != nil {
			return fmt.Errorf("repository: queue_head: %w", err)
		}
		defer result.Close()
		for result.Next() {
			var rec model.URLRecord
			if err := result.Scan(&rec.URL, &rec.Domain, &rec.Depth, &rec.Score, &rec.NextCrawlAt, &rec.ErrorCount); err != nil {
				return fmt.Errorf("repository: queue_head scan: %w", err)
			}
			rows = append(rows, rec)
		}
		return result.Err()
	})
	return rows, err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
