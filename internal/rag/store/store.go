// Package store provides vector storage backends for chunk retrieval.
package store

import (
	"context"

	"github.com/iranzithierry/cognova-backend/internal/model"
)

// minSimilarity is the floor applied at the store boundary. Candidates at or
// below it are degenerate (zero or negative similarity) and never surface.
const minSimilarity = 1e-9

// ChunkHit is one chunk returned by a vector search.
type ChunkHit struct {
	// ChunkID is the chunk identifier.
	ChunkID string
	// SourceID is the owning source.
	SourceID string
	// Index is the chunk position within its source.
	Index int
	// Section is the markdown section title, if any.
	Section string
	// Content is the chunk text.
	Content string
	// Similarity is the L2-derived similarity, higher is closer.
	Similarity float64
}

// SearchQuery describes one vector search.
type SearchQuery struct {
	// WorkspaceID scopes the search.
	WorkspaceID string
	// Vector is the query embedding.
	Vector []float32
	// Query is the raw query text, used for verbatim-match preference.
	Query string
	// SourceIDs, when non-empty, restricts the search to those sources.
	SourceIDs []string
	// TopK is the number of hits to return.
	TopK int
}

// VectorStore defines the vector storage interface.
type VectorStore interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts embedded chunks.
	Upsert(ctx context.Context, chunks []*model.EmbeddedChunk) error

	// Search performs a similarity search scoped to a workspace. Hits are
	// returned in ranked order, best first.
	Search(ctx context.Context, q *SearchQuery) ([]*ChunkHit, error)

	// DeleteSource removes all chunks of one source in a workspace.
	DeleteSource(ctx context.Context, workspaceID, sourceID string) error

	// Stats returns the number of stored chunks.
	Stats(ctx context.Context) (int64, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
