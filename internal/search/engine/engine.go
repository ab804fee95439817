// Package engine implements the SearchEngine: the 10-step search
// orchestration of spec.md §4.10, wiring together the normalizer, intent
// and synonym expanders, the result cache, the page index and the snippet
// generator. google/uuid mints the search_id, grounded on SPEC_FULL's
// decision that the id must exist before log_click can reference it.
package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kljensen/snowball"
	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/search/intent"
	"github.com/corvuscrawl/seeker/internal/search/model"
	"github.com/corvuscrawl/seeker/internal/search/normalizer"
	"github.com/corvuscrawl/seeker/internal/search/rcache"
	"github.com/corvuscrawl/seeker/internal/search/snippet"
	"github.com/corvuscrawl/seeker/internal/search/synonyms"
)

// PageMatch is one full-text hit against the page index, with content
// still attached for snippet generation; Engine strips it before the
// payload leaves the process.
type PageMatch struct {
	URL     string
	Title   string
	Content string
	Score   float64
	ImgURL  string
}

// Store is the subset of durable search state the Engine needs: persisting
// the search log, running the full-text query, and recording clicks.
type Store interface {
	LogSearch(ctx context.Context, entry model.SearchLogEntry) error
	QueryPages(ctx context.Context, expandedQuery string, filters model.Filters, limit int) ([]PageMatch, error)
	LogClick(ctx context.Context, entry model.ClickLogEntry) error
}

// Engine orchestrates a full search() call.
type Engine struct {
	store    Store
	intent   *intent.Expander
	synonyms *synonyms.Expander
	cache    *rcache.Cache
	log      zerolog.Logger
}

// New creates an Engine.
func New(store Store, intentExpander *intent.Expander, synonymExpander *synonyms.Expander, cache *rcache.Cache, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		intent:   intentExpander,
		synonyms: synonymExpander,
		cache:    cache,
		log:      log.With().Str("component", "search_engine").Logger(),
	}
}

// ErrEmptyQuery is returned when the normalized query is empty.
var ErrEmptyQuery = &emptyQueryError{}

type emptyQueryError struct{}

func (e *emptyQueryError) Error() string { return "engine: empty query" }

// Search runs the full ten-step pipeline and returns the response payload
// together with the search_id minted for this call.
func (e *Engine) Search(ctx context.Context, rawQuery string, filters model.Filters, limit int) (model.Payload, string, error) {
	normalized := normalizer.Normalize(rawQuery)
	if normalized == "" {
		return model.Payload{}, "", ErrEmptyQuery
	}

	searchID := uuid.NewString()
	if err := e.store.LogSearch(ctx, model.SearchLogEntry{
		ID:         searchID,
		RawQuery:   rawQuery,
		Normalized: normalized,
		CreatedAt:  time.Now(),
	}); err != nil {
		e.log.Error().Err(err).Msg("failed to persist search log")
	}

	if cached, ok := e.cache.Get(ctx, normalized, filters, limit); ok {
		return cached, searchID, nil
	}

	withIntent := e.intent.Expand(ctx, normalized)
	expanded := e.synonyms.Expand(withIntent)

	matches, err := e.store.QueryPages(ctx, expanded, filters, limit)
	if err != nil {
		return model.Payload{}, "", err
	}

	results := make([]model.Result, 0, len(matches))
	titles := make([]string, 0, len(matches))
	for _, match := range matches {
		results = append(results, model.Result{
			URL:     match.URL,
			Title:   match.Title,
			Snippet: snippet.Generate(match.Content, normalized),
			Score:   match.Score,
			ImgURL:  match.ImgURL,
		})
		titles = append(titles, match.Title)
	}

	payload := model.Payload{
		Query:    rawQuery,
		Count:    len(results),
		Results:  results,
		Keywords: topKeywords(titles),
	}

	e.cache.Put(ctx, normalized, filters, limit, payload)

	return payload, searchID, nil
}

// LogClick appends to the click log; failures are logged, never raised.
func (e *Engine) LogClick(ctx context.Context, searchID, url string, rank int) {
	if err := e.store.LogClick(ctx, model.ClickLogEntry{
		SearchID:  searchID,
		URL:       url,
		Rank:      rank,
		CreatedAt: time.Now(),
	}); err != nil {
		e.log.Warn().Err(err).Str("search_id", searchID).Msg("failed to log click")
	}
}

const topKeywordCount = 5

// topKeywords returns the 5 most frequent stemmed tokens of length > 1
// across titles, folding inflected forms (e.g. "cats"/"cat") into one
// count via the same stemmer used for index tokenization.
func topKeywords(titles []string) []string {
	counts := make(map[string]int)
	for _, title := range titles {
		for _, word := range strings.Fields(strings.ToLower(title)) {
			word = strings.Trim(word, ".,!?\"'():;")
			if len(word) <= 1 {
				continue
			}
			stemmed, err := snowball.Stem(word, "english", true)
			if err != nil || stemmed == "" {
				stemmed = word
			}
			counts[stemmed]++
		}
	}

	type keywordCount struct {
		word  string
		count int
	}
	ordered := make([]keywordCount, 0, len(counts))
	for word, count := range counts {
		ordered = append(ordered, keywordCount{word, count})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].word < ordered[j].word
	})

	limit := topKeywordCount
	if len(ordered) < limit {
		limit = len(ordered)
	}
	keywords := make([]string, limit)
	for i := 0; i < limit; i++ {
		keywords[i] = ordered[i].word
	}
	return keywords
}
