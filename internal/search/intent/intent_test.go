package intent

import (
	"context"
	"testing"

	"github.com/corvuscrawl/seeker/internal/search/model"
)

type fakeRelations struct {
	relations []model.QueryRelation
	err       error
}

func (f *fakeRelations) FindQueryRelations(_ context.Context, _ string) ([]model.QueryRelation, error) {
	return f.relations, f.err
}

func TestExpandRewritesOnHighConfidenceRelation(t *testing.T) {
	e := New(&fakeRelations{relations: []model.QueryRelation{
		{NormalizedQuery: "car", Target: "automobile", Score: 0.9},
	}})

	got := e.Expand(context.Background(), "car")
	if got != "car OR automobile" {
		t.Errorf("got %q", got)
	}
}

func TestExpandIgnoresLowConfidenceRelation(t *testing.T) {
	e := New(&fakeRelations{relations: []model.QueryRelation{
		{NormalizedQuery: "car", Target: "automobile", Score: 0.5},
	}})

	got := e.Expand(context.Background(), "car")
	if got != "car" {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestExpandPicksHighestScoringOnTie(t *testing.T) {
	e := New(&fakeRelations{relations: []model.QueryRelation{
		{NormalizedQuery: "car", Target: "vehicle", Score: 0.8},
		{NormalizedQuery: "car", Target: "automobile", Score: 0.95},
	}})

	got := e.Expand(context.Background(), "car")
	if got != "car OR automobile" {
		t.Errorf("got %q, want highest-scoring target", got)
	}
}

func TestExpandNoRelationsReturnsUnchanged(t *testing.T) {
	e := New(&fakeRelations{})
	if got := e.Expand(context.Background(), "car"); got != "car" {
		t.Errorf("got %q", got)
	}
}
