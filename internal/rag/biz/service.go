package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/metrics"
)

// SearchService is the retrieval front: cache lookup, hybrid retrieval, and
// term-importance reranking.
type SearchService struct {
	retriever *Retriever
	booster   *Booster
	cache     *SearchCache
	metrics   *metrics.Metrics
}

// NewSearchService composes the search pipeline. booster and cache may be
// nil.
func NewSearchService(retriever *Retriever, booster *Booster, cache *SearchCache) *SearchService {
	return &SearchService{
		retriever: retriever,
		booster:   booster,
		cache:     cache,
		metrics:   metrics.Default(),
	}
}

// Retrieve returns ranked results for a workspace query.
func (s *SearchService) Retrieve(ctx context.Context, workspaceID, query string) ([]*model.SearchResult, error) {
	return s.RetrieveScoped(ctx, workspaceID, nil, query)
}

// RetrieveScoped is Retrieve restricted to a subset of sources. Scoped
// queries skip the cache since the key does not encode the scope.
func (s *SearchService) RetrieveScoped(ctx context.Context, workspaceID string, sourceIDs []string, query string) ([]*model.SearchResult, error) {
	s.metrics.IncSearches()

	useCache := len(sourceIDs) == 0 && s.cache != nil && s.cache.Enabled()
	if useCache {
		cached, err := s.cache.Get(ctx, workspaceID, query)
		if err == nil && cached != nil {
			s.metrics.IncCacheHits()
			return cached, nil
		}
		s.metrics.IncCacheMisses()
	}

	results, err := s.retriever.RetrieveScoped(ctx, workspaceID, sourceIDs, query)
	if err != nil {
		return nil, err
	}

	if s.booster != nil {
		if boosted := s.booster.Rerank(query, results); len(boosted) > 0 {
			results = boosted
		}
	}

	if useCache && len(results) > 0 {
		if err := s.cache.Set(ctx, workspaceID, query, results); err != nil {
			logger.Warnw("failed to cache search results",
				"workspace_id", workspaceID,
				"error", err.Error())
		}
	}
	return results, nil
}
