package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/pkg/component/milvus"
)

// MilvusStore implements VectorStore backed by Milvus.
type MilvusStore struct {
	client     *milvus.Client
	collection string
}

// NewMilvusStore creates a Milvus-backed vector store.
func NewMilvusStore(client *milvus.Client, collection string) *MilvusStore {
	return &MilvusStore{
		client:     client,
		collection: collection,
	}
}

// EnsureCollection creates the chunk collection if it does not exist.
func (s *MilvusStore) EnsureCollection(ctx context.Context, dimension int) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "Embedded source chunks",
		Dimension:   dimension,
		MetaFields: []milvus.MetaField{
			{Name: "workspace_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "source_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "chunk_index", DataType: entity.FieldTypeInt64},
			{Name: "section", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	return s.client.CreateCollection(ctx, schema)
}

// Upsert inserts embedded chunks into Milvus.
func (s *MilvusStore) Upsert(ctx context.Context, chunks []*model.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"workspace_id": make([]any, len(chunks)),
		"source_id":    make([]any, len(chunks)),
		"chunk_id":     make([]any, len(chunks)),
		"chunk_index":  make([]any, len(chunks)),
		"section":      make([]any, len(chunks)),
		"content":      make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["workspace_id"][i] = chunk.WorkspaceID
		metadata["source_id"][i] = chunk.SourceID
		metadata["chunk_id"][i] = chunk.ID
		metadata["chunk_index"][i] = int64(chunk.Index)
		metadata["section"][i] = chunk.SectionTitle
		metadata["content"][i] = chunk.Content
	}

	data := &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}

	if _, err := s.client.Insert(ctx, s.collection, data); err != nil {
		return fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return nil
}

// Search performs a workspace-scoped similarity search.
func (s *MilvusStore) Search(ctx context.Context, q *SearchQuery) ([]*ChunkHit, error) {
	expr := fmt.Sprintf(`workspace_id == "%s"`, escapeExpr(q.WorkspaceID))
	if len(q.SourceIDs) > 0 {
		quoted := make([]string, len(q.SourceIDs))
		for i, id := range q.SourceIDs {
			quoted[i] = `"` + escapeExpr(id) + `"`
		}
		expr += " && source_id in [" + strings.Join(quoted, ", ") + "]"
	}
	outputFields := []string{"workspace_id", "source_id", "chunk_id", "chunk_index", "section", "content"}

	results, err := s.client.Search(ctx, s.collection, q.Vector, expr, q.TopK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	hits := make([]*ChunkHit, 0, len(results))
	for _, r := range results {
		// The index metric is L2, so the raw score is a distance.
		similarity := 1.0 - float64(r.Score)
		if similarity <= minSimilarity {
			continue
		}

		hit := &ChunkHit{
			Similarity: similarity,
		}
		if v, ok := r.Metadata["source_id"].(string); ok {
			hit.SourceID = v
		}
		if v, ok := r.Metadata["chunk_id"].(string); ok {
			hit.ChunkID = v
		}
		if v, ok := r.Metadata["chunk_index"].(int64); ok {
			hit.Index = int(v)
		}
		if v, ok := r.Metadata["section"].(string); ok {
			hit.Section = v
		}
		if v, ok := r.Metadata["content"].(string); ok {
			hit.Content = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteSource removes all chunks of one source in a workspace.
func (s *MilvusStore) DeleteSource(ctx context.Context, workspaceID, sourceID string) error {
	expr := fmt.Sprintf(`workspace_id == "%s" && source_id == "%s"`,
		escapeExpr(workspaceID), escapeExpr(sourceID))
	if err := s.client.DeleteByExpr(ctx, s.collection, expr); err != nil {
		return fmt.Errorf("failed to delete source chunks: %w", err)
	}
	return nil
}

// Stats returns the number of stored chunks.
func (s *MilvusStore) Stats(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// escapeExpr sanitizes a value embedded in a Milvus filter expression.
func escapeExpr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

var _ VectorStore = (*MilvusStore)(nil)
