package service

import (
	"context"
	"strings"

	"github.com/jandrana/vectordb/core"
	"github.com/jandrana/vectordb/model"
	"github.com/jandrana/vectordb/repo"
	"github.com/jandrana/vectordb/search"
)

const (
	// DefaultStrategy is used when a search names no strategy.
	DefaultStrategy = "knn"
	// DefaultK is used when a search names no result count.
	DefaultK = 5
)

// SearchService validates search requests and dispatches them to the
// registered strategy.
type SearchService struct {
	libraries *repo.LibraryRepo
	registry  *search.Registry
}

// NewSearchService creates a SearchService.
func NewSearchService(libraries *repo.LibraryRepo, registry *search.Registry) *SearchService {
	return &SearchService{libraries: libraries, registry: registry}
}

// Strategies returns the registered strategy names, sorted.
func (s *SearchService) Strategies() []string {
	return s.registry.Names()
}

// Search runs a query against one library. Empty strategy and zero k select
// the defaults; a negative k is rejected downstream.
func (s *SearchService) Search(ctx context.Context, libraryID model.LibraryID, query, strategy string, k int) ([]model.ScoredChunk, error) {
	if _, err := s.libraries.Get(libraryID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, core.NewValidationError("query", "must not be empty")
	}
	if strategy == "" {
		strategy = DefaultStrategy
	}
	if k == 0 {
		k = DefaultK
	}

	strat, err := s.registry.Get(strategy)
	if err != nil {
		return nil, err
	}
	return strat.Search(ctx, search.Request{LibraryID: libraryID, Query: query, K: k})
}
