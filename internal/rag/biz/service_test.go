package biz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranzithierry/cognova-backend/internal/rag/biz"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
)

func TestSearchServiceAppliesBooster(t *testing.T) {
	vs := &fakeVectorStore{hits: []*store.ChunkHit{
		hit("s1", "general notes about the product", 0.9),
		hit("s2", "refund policy details", 0.8),
	}}
	r := newTestRetriever(vs, &biz.RetrieverConfig{
		TopK:           5,
		SemanticWeight: 0.7,
		LexicalWeight:  0,
	})
	svc := biz.NewSearchService(r, biz.NewBooster(nil), nil)

	// The booster drops results matching no query term and boosts the rest.
	results, err := svc.Retrieve(context.Background(), "w1", "refund policy")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s2", results[0].SourceID)
	assert.Greater(t, results[0].Boost, 0.0)
}

func TestSearchServiceScopedRetrieval(t *testing.T) {
	vs := &fakeVectorStore{hits: []*store.ChunkHit{
		hit("s1", "refund policy details", 0.9),
	}}
	r := newTestRetriever(vs, nil)
	svc := biz.NewSearchService(r, nil, nil)

	results, err := svc.RetrieveScoped(context.Background(), "w1", []string{"s1"}, "refund")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, vs.lastQuery)
	assert.Equal(t, []string{"s1"}, vs.lastQuery.SourceIDs)
}
