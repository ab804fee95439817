package index

import (
	"context"
	"testing"

	"github.com/corvuscrawl/seeker/internal/crawl/model"
)

type fakeUpserter struct {
	received model.PageRecord
	err      error
}

func (f *fakeUpserter) UpsertPage(ctx context.Context, record model.PageRecord) error {
	f.received = record
	return f.err
}

func TestUpsertDelegatesToStore(t *testing.T) {
	store := &fakeUpserter{}
	idx := New(store)

	record := model.PageRecord{URL: "https://x.com/a", Title: "hello"}
	if err := idx.Upsert(context.Background(), record); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if store.received.URL != record.URL {
		t.Errorf("store received %+v, want %+v", store.received, record)
	}
}
