// Package index implements the Indexer: the Worker's sole write path into
// the page store. It is a thin domain-named collaborator over
// Repository.UpsertPage, grounded on the spec's explicit separation of
// "Worker" (orchestration) from "Indexer" (storage semantics) so the
// Worker never depends on Repository methods it doesn't need.
package index

import (
	"context"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

// Upserter is the subset of Repository the Indexer needs.
type Upserter interface {
	UpsertPage(ctx context.Context, record model.PageRecord) error
}

// Indexer persists parsed pages: upserting the page row, registering image
// assets by content-address hash, replacing page-image links, and
// recomputing search_text, all within one transaction delegated to the
// underlying Upserter.
type Indexer struct {
	store Upserter
}

// New creates an Indexer over store.
func New(store Upserter) *Indexer {
	return &Indexer{store: store}
}

// Upsert indexes record.
func (idx *Indexer) Upsert(ctx context.Context, record model.PageRecord) error {
	return idx.store.UpsertPage(ctx, record)
}
