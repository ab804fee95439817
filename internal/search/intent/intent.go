// Package intent implements the IntentExpander: looks up a learned or
// curated query relation before synonym expansion runs. Grounded on
// spec.md §4.9 and the query_relations table in the data model.
package intent

import (
	"context"

	"github.com/corvuscrawl/seeker/internal/search/model"
)

// minConfidence is the score threshold below which a query relation is
// ignored.
const minConfidence = 0.8

// Relations is the subset of the search Repository the Expander needs.
type Relations interface {
	FindQueryRelations(ctx context.Context, normalizedQuery string) ([]model.QueryRelation, error)
}

// Expander consults query_relations for the exact normalized query and
// rewrites it to an OR expansion when a sufficiently confident relation
// exists.
type Expander struct {
	relations Relations
}

// New creates an Expander over relations.
func New(relations Relations) *Expander {
	return &Expander{relations: relations}
}

// Expand returns "<query> OR <target>" for the highest-scoring relation
// with score >= 0.8, or query unchanged if none qualifies.
func (e *Expander) Expand(ctx context.Context, normalizedQuery string) string {
	relations, err := e.relations.FindQueryRelations(ctx, normalizedQuery)
	if err != nil || len(relations) == 0 {
		return normalizedQuery
	}

	best := relations[0]
	for _, rel := range relations[1:] {
		if rel.Score > best.Score {
			best = rel
		}
	}

	if best.Score < minConfidence {
		return normalizedQuery
	}
	return normalizedQuery + " OR " + best.Target
}
