// Package model contains the durable record types that flow through the
// crawl control plane.
package model

import "time"

// URLStatus is the state a crawl_urls row can be in.
type URLStatus string

// The full set of states a URL can occupy during its lifecycle.
const (
	StatusPending  URLStatus = "pending"
	StatusCrawling URLStatus = "crawling"
	StatusDone     URLStatus = "done"
	StatusError    URLStatus = "error"
	StatusBlocked  URLStatus = "blocked"
	StatusDeleted  URLStatus = "deleted"
)

// URLRecord is the primary crawl-state row, keyed by normalized URL.
type URLRecord struct {
	URL           string
	Domain        string
	Depth         int
	Status        URLStatus
	Score         float64
	ErrorCount    int
	NextCrawlAt   time.Time
	LastCrawledAt time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
	BlockedReason string
}

// ImageAsset is a globally unique image, keyed by a content-address hash of
// its canonical URL with the query string stripped.
type ImageAsset struct {
	Hash         string
	CanonicalURL string
}

// PageImage links a page to one of its images, replaced wholesale on every
// crawl of the page. It embeds the ImageAsset so the Indexer can upsert the
// asset and the link in the same pass without a second lookup.
type PageImage struct {
	ImageAsset
	AltText  string
	Position int
}

// PageRecord is the page row produced by the parser and persisted by the
// Indexer, keyed by URL.
type PageRecord struct {
	URL                 string
	Title               string
	Content              string
	Category            string
	PublishedAt         *time.Time
	SearchText          string
	Images              []PageImage
	RepresentativeImage string
	Links               []string
	CrawledAt           time.Time
	UpdatedAt           time.Time
}

// WorkItem is the wire payload a dispatcher enqueues and a worker consumes:
// an ordered (url, depth) pair.
type WorkItem struct {
	URL   string
	Depth int
}
