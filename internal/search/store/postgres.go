// Package store implements the search side's durable state: search and
// click logs, query_relations lookups, and the full-text query against
// web_pages. Grounded on the same dbx.WithTx transaction idiom as
// internal/crawl/repository/postgres.go.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvuscrawl/seeker/internal/dbx"
	"github.com/corvuscrawl/seeker/internal/search/engine"
	"github.com/corvuscrawl/seeker/internal/search/model"
	"github.com/jackc/pgx/v5"
)

// PostgresStore implements engine.Store and intent.Relations against the
// relational schema shared with the crawl side.
type PostgresStore struct {
	db *dbx.DB
}

// New creates a PostgresStore over db.
func New(db *dbx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// LogSearch persists one search log row.
func (s *PostgresStore) LogSearch(ctx context.Context, entry model.SearchLogEntry) error {
	return s.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO search_logs (id, raw_query, normalized_query, created_at)
			VALUES ($1, $2, $3, $4)
		`, entry.ID, entry.RawQuery, entry.Normalized, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("store: log_search: %w", err)
		}
		return nil
	})
}

// LogClick persists one click log row.
func (s *PostgresStore) LogClick(ctx context.Context, entry model.ClickLogEntry) error {
	return s.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO click_logs (search_id, url, rank, created_at)
			VALUES ($1, $2, $3, $4)
		`, entry.SearchID, entry.URL, entry.Rank, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("store: log_click: %w", err)
		}
		return nil
	})
}

// FindQueryRelations returns every learned relation for normalizedQuery.
func (s *PostgresStore) FindQueryRelations(ctx context.Context, normalizedQuery string) ([]model.QueryRelation, error) {
	var relations []model.QueryRelation
	err := s.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT normalized_query, target, score
			FROM query_relations
			WHERE normalized_query = $1
		`, normalizedQuery)
		if err != nil {
			return fmt.Errorf("store: find_query_relations: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var rel model.QueryRelation
			if err := rows.Scan(&rel.NormalizedQuery, &rel.Target, &rel.Score); err != nil {
				return fmt.Errorf("store: scan query relation: %w", err)
			}
			relations = append(relations, rel)
		}
		return rows.Err()
	})
	return relations, err
}

// QueryPages runs the full-text search against web_pages.search_text,
// applying filters and the optional representative-image join.
func (s *PostgresStore) QueryPages(ctx context.Context, expandedQuery string, filters model.Filters, limit int) ([]engine.PageMatch, error) {
	var matches []engine.PageMatch
	err := s.db.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			SELECT p.url, p.title, p.content, p.search_text,
			       ts_rank_cd(to_tsvector('english', p.search_text), to_tsquery('english', $1)) AS score,
			       COALESCE(i.canonical_url, '') AS img_url
			FROM web_pages p
			LEFT JOIN images i ON i.hash = p.representative_image_hash AND $2
			WHERE to_tsvector('english', p.search_text) @@ to_tsquery('english', $1)
			  AND ($3 = '' OR p.category = $3)
			  AND ($4 = '' OR p.url LIKE '%' || $4 || '%')
			  AND ($5::timestamptz IS NULL OR p.published_at >= $5)
			  AND ($6::timestamptz IS NULL OR p.published_at <= $6)
			ORDER BY score DESC
			LIMIT $7
		`
		rows, err := tx.Query(ctx, query,
			toTSQuery(expandedQuery), filters.IncludeImages, filters.Category, filters.Domain,
			filters.DateFrom, filters.DateTo, limit,
		)
		if err != nil {
			return fmt.Errorf("store: query_pages: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var match engine.PageMatch
			var searchText string
			if err := rows.Scan(&match.URL, &match.Title, &match.Content, &searchText, &match.Score, &match.ImgURL); err != nil {
				return fmt.Errorf("store: scan page match: %w", err)
			}
			matches = append(matches, match)
		}
		return rows.Err()
	})
	return matches, err
}

// tsQuerySpecial strips characters that carry operator meaning in
// to_tsquery's syntax, so a query term can never break out of the
// lexeme position it's translated into.
var tsQuerySpecial = strings.NewReplacer(
	"&", " ", "|", " ", "!", " ", "(", " ", ")", " ", "'", " ", ":", " ", "*", " ",
)

// toTSQuery translates SynonymExpander/IntentExpander output — a
// space-joined sequence of bare terms, "(v1 OR v2 OR ...)" variant groups,
// and literal "OR" tokens (see internal/search/synonyms and
// internal/search/intent) — into to_tsquery's operator syntax (&, |, ()).
// plainto_tsquery cannot be used here: it treats its whole input as plain
// text, dropping "OR" as a stopword and ANDing every remaining lexeme,
// which silently collapses every synonym/intent variant into a strict AND.
func toTSQuery(expandedQuery string) string {
	var b strings.Builder
	joiner := ""
	for _, token := range splitTopLevel(expandedQuery) {
		if token == "OR" {
			joiner = "|"
			continue
		}
		fragment := translateFragment(token)
		if fragment == "" {
			continue
		}
		if b.Len() > 0 {
			if joiner == "" {
				joiner = "&"
			}
			b.WriteString(" ")
			b.WriteString(joiner)
			b.WriteString(" ")
		}
		b.WriteString(fragment)
		joiner = ""
	}
	return b.String()
}

// splitTopLevel splits on spaces outside of parens, so a "(v1 OR v2)"
// group (which contains internal spaces) stays one token.
func splitTopLevel(s string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case r == ' ' && depth == 0:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// translateFragment turns one top-level token into a tsquery fragment: a
// "(v1 OR v2)" group becomes "(v1lex | v2lex)" with multi-word variants
// ANDed internally, a bare term becomes its sanitized lexeme(s).
func translateFragment(token string) string {
	if strings.HasPrefix(token, "(") && strings.HasSuffix(token, ")") {
		inner := token[1 : len(token)-1]
		variants := strings.Split(inner, " OR ")
		parts := make([]string, 0, len(variants))
		for _, variant := range variants {
			if lexemes := phraseToLexemes(variant); lexemes != "" {
				parts = append(parts, lexemes)
			}
		}
		switch len(parts) {
		case 0:
			return ""
		case 1:
			return parts[0]
		default:
			return "(" + strings.Join(parts, " | ") + ")"
		}
	}
	return phraseToLexemes(token)
}

// phraseToLexemes ANDs together the sanitized words of a multi-word
// variant or term. Sanitizing a word can itself introduce whitespace (an
// operator character replaced by a space), so words are re-split after
// cleaning rather than trimmed in place.
func phraseToLexemes(phrase string) string {
	var lexemes []string
	for _, word := range strings.Fields(phrase) {
		for _, piece := range strings.Fields(tsQuerySpecial.Replace(word)) {
			lexemes = append(lexemes, piece)
		}
	}
	return strings.Join(lexemes, " & ")
}
