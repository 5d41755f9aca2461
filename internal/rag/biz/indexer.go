package biz

import (
	"context"
	"sync"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/pkg/chunker"
	"github.com/iranzithierry/cognova-backend/internal/pkg/textutil"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/id"

	"github.com/iranzithierry/cognova-backend/internal/rag/metrics"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
)

// IndexerConfig configures source ingestion.
type IndexerConfig struct {
	// EmbeddingDim is the embedding dimension used for the collection.
	EmbeddingDim int
	// Workers is the size of the ingestion worker pool.
	Workers int
}

// SourceStatusFunc receives ingestion status transitions for a source.
type SourceStatusFunc func(sourceID, status string, chunkCount int)

// IndexRequest describes one source to ingest.
type IndexRequest struct {
	WorkspaceID string
	SourceID    string
	Content     string
}

// Indexer ingests sources: clean, chunk, embed, upsert.
type Indexer struct {
	store    store.VectorStore
	embedder *Embedder
	chunker  *chunker.Chunker
	config   *IndexerConfig
	onStatus SourceStatusFunc

	pool     *ants.Pool
	poolOnce sync.Once
}

// NewIndexer creates an indexer. onStatus may be nil.
func NewIndexer(vectorStore store.VectorStore, embedder *Embedder, ck *chunker.Chunker, config *IndexerConfig, onStatus SourceStatusFunc) *Indexer {
	if config == nil {
		config = &IndexerConfig{EmbeddingDim: 1024, Workers: 4}
	}
	return &Indexer{
		store:    vectorStore,
		embedder: embedder,
		chunker:  ck,
		config:   config,
		onStatus: onStatus,
	}
}

// IndexSource ingests one source, replacing any chunks it stored before.
func (i *Indexer) IndexSource(ctx context.Context, req *IndexRequest) error {
	i.notify(req.SourceID, model.SourceStatusIndexing, 0)

	if err := i.store.EnsureCollection(ctx, i.config.EmbeddingDim); err != nil {
		i.notify(req.SourceID, model.SourceStatusFailed, 0)
		return apperrors.ErrIndexFailed.WithCause(err)
	}

	content := textutil.CleanForIndex(req.Content)
	chunks, err := i.chunker.Split(content)
	if err != nil {
		i.notify(req.SourceID, model.SourceStatusFailed, 0)
		return err
	}

	texts := make([]string, len(chunks))
	for idx, chunk := range chunks {
		texts[idx] = chunk.Content
	}

	embeddings, err := i.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		i.notify(req.SourceID, model.SourceStatusFailed, 0)
		return err
	}

	embedded := make([]*model.EmbeddedChunk, len(chunks))
	for idx, chunk := range chunks {
		embedded[idx] = &model.EmbeddedChunk{
			ID:          id.New(),
			WorkspaceID: req.WorkspaceID,
			SourceID:    req.SourceID,
			Chunk:       chunk,
			Embedding:   embeddings[idx],
		}
	}

	// Re-ingestion replaces the source's previous chunks.
	if err := i.store.DeleteSource(ctx, req.WorkspaceID, req.SourceID); err != nil {
		logger.Warnw("failed to delete previous source chunks",
			"source_id", req.SourceID,
			"error", err.Error())
	}
	if err := i.store.Upsert(ctx, embedded); err != nil {
		i.notify(req.SourceID, model.SourceStatusFailed, 0)
		return apperrors.ErrIndexFailed.WithCause(err)
	}

	logger.Infow("source indexed",
		"workspace_id", req.WorkspaceID,
		"source_id", req.SourceID,
		"chunks", len(embedded))
	metrics.Default().AddChunksIndexed(len(embedded))
	metrics.Default().IncSourcesIndexed()
	i.notify(req.SourceID, model.SourceStatusIndexed, len(embedded))
	return nil
}

// IndexSources ingests multiple sources concurrently. Each source fails or
// succeeds independently; the first error is returned after all finish.
func (i *Indexer) IndexSources(ctx context.Context, reqs []*IndexRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	pool := i.workerPool()
	for _, req := range reqs {
		req := req
		wg.Add(1)
		task := func() {
			defer wg.Done()
			record(i.IndexSource(ctx, req))
		}

		if pool != nil {
			if err := pool.Submit(task); err == nil {
				continue
			}
			// Pool saturated or closed: degrade to a plain goroutine.
		}
		go task()
	}

	wg.Wait()
	return firstErr
}

// Release shuts down the ingestion worker pool.
func (i *Indexer) Release() {
	if i.pool != nil {
		i.pool.Release()
	}
}

func (i *Indexer) workerPool() *ants.Pool {
	i.poolOnce.Do(func() {
		workers := i.config.Workers
		if workers <= 0 {
			workers = 4
		}
		pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
		if err != nil {
			logger.Warnw("failed to create ingestion pool, using goroutines",
				"error", err.Error())
			return
		}
		i.pool = pool
	})
	return i.pool
}

func (i *Indexer) notify(sourceID, status string, chunkCount int) {
	if i.onStatus != nil {
		i.onStatus(sourceID, status, chunkCount)
	}
}
