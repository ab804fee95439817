// Package model defines the search-domain persistent and transient shapes:
// search/click logs, query-intent relations, filters, and the payload
// returned by the SearchEngine.
package model

import "time"

// Filters narrows a search to a category, domain substring, and/or
// publication date range, with an optional join for a representative
// image.
type Filters struct {
	Category       string
	Domain         string
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeImages  bool
}

// Result is a single row of a search response.
type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	ImgURL  string  `json:"img_url,omitempty"`
}

// Payload is the cacheable, servable body of a search response.
type Payload struct {
	Query    string   `json:"query"`
	Count    int      `json:"count"`
	Results  []Result `json:"results"`
	Keywords []string `json:"keywords"`
}

// SearchLogEntry records one search() invocation for analytics and
// relevance feedback.
type SearchLogEntry struct {
	ID         string
	RawQuery   string
	Normalized string
	CreatedAt  time.Time
}

// ClickLogEntry records a click-through against a prior search.
type ClickLogEntry struct {
	SearchID  string
	URL       string
	Rank      int
	CreatedAt time.Time
}

// QueryRelation is a learned or curated "this query implies that query"
// expansion, scored in [0,1].
type QueryRelation struct {
	NormalizedQuery string
	Target          string
	Score           float64
}
