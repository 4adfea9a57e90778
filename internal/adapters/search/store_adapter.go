package search

import (
	"context"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
)

// StoreAdapter serves standards search from the in-memory knowledge store.
// It backs the search endpoint when Typesense is unreachable, trading typo
// tolerance and relevance ranking for a plain substring match over the
// loaded corpus.
type StoreAdapter struct {
	store *knowledge.Store
}

// NewStoreAdapter creates a knowledge-store searcher
func NewStoreAdapter(store *knowledge.Store) *StoreAdapter {
	return &StoreAdapter{store: store}
}

// Search performs a case-insensitive substring lookup with the same filter
// and paging semantics as the Typesense adapter.
func (a *StoreAdapter) Search(_ context.Context, params StandardSearchParams) ([]entities.StandardRecord, error) {
	matches := a.store.KeywordLookup(params.Query, params.Discipline, params.Category)
	if params.Offset >= len(matches) {
		return nil, nil
	}
	matches = matches[params.Offset:]
	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}
