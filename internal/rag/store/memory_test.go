package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
)

func embedded(id, workspaceID, sourceID, content string, embedding []float32) *model.EmbeddedChunk {
	return &model.EmbeddedChunk{
		ID:          id,
		WorkspaceID: workspaceID,
		SourceID:    sourceID,
		Chunk: model.Chunk{
			Content: content,
		},
		Embedding: embedding,
	}
}

func TestMemoryStoreSearchRanking(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "exact match", []float32{1, 0, 0}),
		embedded("c2", "w1", "s2", "near match", []float32{0.9, 0, 0}),
		embedded("c3", "w1", "s3", "far away", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		TopK:        10,
	})
	require.NoError(t, err)

	// c3 sits at distance sqrt(2), its similarity is negative and must be
	// filtered at the store boundary.
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c2", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.InDelta(t, 0.9, hits[1].Similarity, 1e-6)
}

func TestMemoryStoreWorkspaceScoping(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "workspace one", []float32{1, 0, 0}),
		embedded("c2", "w2", "s1", "workspace two", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)

	hits, err = s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w3",
		Vector:      []float32{1, 0, 0},
		TopK:        10,
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStoreSourceScoping(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "in scope", []float32{1, 0, 0}),
		embedded("c2", "w1", "s2", "also in scope", []float32{0.95, 0, 0}),
		embedded("c3", "w1", "s3", "out of scope", []float32{0.99, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		SourceIDs:   []string{"s1", "s2"},
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
	assert.Equal(t, "c2", hits[1].ChunkID)
}

func TestMemoryStoreVerbatimPreference(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	// Same source: the closer chunk does not mention the query, the farther
	// one contains it verbatim. The verbatim chunk must take the source's
	// best-ranked slot.
	err := s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("close", "w1", "s1", "general text about systems", []float32{1, 0, 0}),
		embedded("verbatim", "w1", "s1", "how Billing Works step by step", []float32{0.8, 0, 0}),
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		Query:       "billing works",
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "verbatim", hits[0].ChunkID)
	assert.Equal(t, "close", hits[1].ChunkID)
}

func TestMemoryStoreDeleteSource(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "keep", []float32{1, 0, 0}),
		embedded("c2", "w1", "s2", "drop", []float32{0.9, 0, 0}),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSource(ctx, "w1", "s2"))

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ChunkID)

	count, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreUpsertReplacesChunk(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "old content", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "new content", []float32{1, 0, 0}),
	}))

	count, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1",
		Vector:      []float32{1, 0, 0},
		TopK:        10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new content", hits[0].Content)
}

func TestMemoryStoreIndexInvalidation(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c1", "w1", "s1", "first", []float32{1, 0, 0}),
	}))

	// First search builds and caches the index.
	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1", Vector: []float32{1, 0, 0}, TopK: 10,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// A later upsert must show up in subsequent searches.
	require.NoError(t, s.Upsert(ctx, []*model.EmbeddedChunk{
		embedded("c2", "w1", "s2", "second", []float32{0.95, 0, 0}),
	}))

	hits, err = s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1", Vector: []float32{1, 0, 0}, TopK: 10,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestMemoryStoreTopKTruncation(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	chunks := make([]*model.EmbeddedChunk, 0, 10)
	for i := 0; i < 10; i++ {
		chunks = append(chunks, embedded(
			string(rune('a'+i)), "w1", "s1", "content",
			[]float32{1 - float32(i)*0.01, 0, 0},
		))
	}
	require.NoError(t, s.Upsert(ctx, chunks))

	hits, err := s.Search(ctx, &store.SearchQuery{
		WorkspaceID: "w1", Vector: []float32{1, 0, 0}, TopK: 3,
	})
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}
