package biz_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
)

// fakeProvider is an embedding provider returning deterministic vectors.
type fakeProvider struct {
	mu      sync.Mutex
	dim     int
	batches [][]string
	singles []string
	failAt  int // batch index that fails, -1 for never
	embedFn func(text string) []float32
}

func newFakeProvider(dim int) *fakeProvider {
	return &fakeProvider{dim: dim, failAt: -1}
}

func (f *fakeProvider) vector(text string) []float32 {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	v := make([]float32, f.dim)
	if f.dim > 0 {
		v[0] = float32(len([]rune(text)))
	}
	return v
}

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAt >= 0 && len(f.batches) == f.failAt {
		f.batches = append(f.batches, texts)
		return nil, fmt.Errorf("provider unavailable")
	}
	f.batches = append(f.batches, texts)

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.singles = append(f.singles, text)
	f.mu.Unlock()
	return f.vector(text), nil
}

func (f *fakeProvider) Name() string { return "fake" }

// fakeVectorStore returns canned hits and records calls.
type fakeVectorStore struct {
	mu        sync.Mutex
	hits      []*store.ChunkHit
	searchErr error
	lastQuery *store.SearchQuery
	upserted  []*model.EmbeddedChunk
	deleted   []string // "workspace/source" pairs
}

func (f *fakeVectorStore) EnsureCollection(context.Context, int) error { return nil }

func (f *fakeVectorStore) Upsert(_ context.Context, chunks []*model.EmbeddedChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, chunks...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, q *store.SearchQuery) ([]*store.ChunkHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeVectorStore) DeleteSource(_ context.Context, workspaceID, sourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, workspaceID+"/"+sourceID)
	return nil
}

func (f *fakeVectorStore) Stats(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.upserted)), nil
}

func (f *fakeVectorStore) Close(context.Context) error { return nil }

var _ store.VectorStore = (*fakeVectorStore)(nil)
