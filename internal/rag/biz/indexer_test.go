package biz_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/pkg/chunker"
	"github.com/iranzithierry/cognova-backend/internal/rag/biz"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

type statusEvent struct {
	sourceID string
	status   string
	chunks   int
}

func newTestIndexer(vs *fakeVectorStore, provider *fakeProvider, events *[]statusEvent) *biz.Indexer {
	embedder := biz.NewEmbedder(provider, &biz.EmbedderConfig{
		BatchSize:   100,
		Dimension:   4,
		MaxTextSize: 2000,
	})
	ck := chunker.New(&chunker.Config{MaxSize: 50, Overlap: 10})

	var onStatus biz.SourceStatusFunc
	if events != nil {
		onStatus = func(sourceID, status string, chunkCount int) {
			*events = append(*events, statusEvent{sourceID, status, chunkCount})
		}
	}
	return biz.NewIndexer(vs, embedder, ck, &biz.IndexerConfig{
		EmbeddingDim: 4,
		Workers:      2,
	}, onStatus)
}

func TestIndexSource(t *testing.T) {
	vs := &fakeVectorStore{}
	provider := newFakeProvider(4)
	var events []statusEvent
	idx := newTestIndexer(vs, provider, &events)
	defer idx.Release()

	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)
	err := idx.IndexSource(context.Background(), &biz.IndexRequest{
		WorkspaceID: "w1",
		SourceID:    "s1",
		Content:     content,
	})
	require.NoError(t, err)

	require.NotEmpty(t, vs.upserted)
	for i, chunk := range vs.upserted {
		assert.Equal(t, "w1", chunk.WorkspaceID)
		assert.Equal(t, "s1", chunk.SourceID)
		assert.NotEmpty(t, chunk.ID)
		assert.NotEmpty(t, chunk.Content)
		assert.Len(t, chunk.Embedding, 4)
		assert.Equal(t, i, chunk.Index)
	}

	// Previous chunks of the source are removed before the new ones land.
	assert.Equal(t, []string{"w1/s1"}, vs.deleted)

	require.Len(t, events, 2)
	assert.Equal(t, statusEvent{"s1", model.SourceStatusIndexing, 0}, events[0])
	assert.Equal(t, statusEvent{"s1", model.SourceStatusIndexed, len(vs.upserted)}, events[1])
}

func TestIndexSourceKeepsHeadingStructure(t *testing.T) {
	vs := &fakeVectorStore{}
	idx := newTestIndexer(vs, newFakeProvider(4), nil)
	defer idx.Release()

	content := "# Guide\n\n" +
		"## Install\nRun the installer first. Then verify the checksum of the download.\n\n" +
		"## Configure\nEdit the config file. Restart the service once it is saved.\n"
	err := idx.IndexSource(context.Background(), &biz.IndexRequest{
		WorkspaceID: "w1",
		SourceID:    "s1",
		Content:     content,
	})
	require.NoError(t, err)
	require.Greater(t, len(vs.upserted), 1)

	// Cleaning must not flatten the document: heading lines survive into the
	// chunker, so chunks split at sections and carry real heading titles.
	titles := make(map[string]bool)
	for _, chunk := range vs.upserted {
		assert.NotContains(t, chunk.SectionTitle, "##")
		assert.Contains(t, []string{"Guide", "Install", "Configure"}, chunk.SectionTitle)
		titles[chunk.SectionTitle] = true
	}
	assert.True(t, titles["Install"])
	assert.True(t, titles["Configure"])
}

func TestIndexSourceEmptyContent(t *testing.T) {
	vs := &fakeVectorStore{}
	var events []statusEvent
	idx := newTestIndexer(vs, newFakeProvider(4), &events)
	defer idx.Release()

	err := idx.IndexSource(context.Background(), &biz.IndexRequest{
		WorkspaceID: "w1",
		SourceID:    "s1",
		Content:     "   \n\t ",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
	assert.Empty(t, vs.upserted)

	require.Len(t, events, 2)
	assert.Equal(t, model.SourceStatusFailed, events[1].status)
}

func TestIndexSourceEmbedFailure(t *testing.T) {
	vs := &fakeVectorStore{}
	provider := newFakeProvider(4)
	provider.failAt = 0
	var events []statusEvent
	idx := newTestIndexer(vs, provider, &events)
	defer idx.Release()

	err := idx.IndexSource(context.Background(), &biz.IndexRequest{
		WorkspaceID: "w1",
		SourceID:    "s1",
		Content:     "some content to index",
	})
	require.Error(t, err)
	assert.Empty(t, vs.upserted)
	assert.Equal(t, model.SourceStatusFailed, events[len(events)-1].status)
}

func TestIndexSourcesConcurrent(t *testing.T) {
	vs := &fakeVectorStore{}
	idx := newTestIndexer(vs, newFakeProvider(4), nil)
	defer idx.Release()

	reqs := make([]*biz.IndexRequest, 8)
	for i := range reqs {
		reqs[i] = &biz.IndexRequest{
			WorkspaceID: "w1",
			SourceID:    fmt.Sprintf("s%d", i),
			Content:     fmt.Sprintf("content for source number %d", i),
		}
	}

	err := idx.IndexSources(context.Background(), reqs)
	require.NoError(t, err)

	sources := make(map[string]bool)
	for _, chunk := range vs.upserted {
		sources[chunk.SourceID] = true
	}
	assert.Len(t, sources, 8)
}

func TestIndexSourcesEmpty(t *testing.T) {
	idx := newTestIndexer(&fakeVectorStore{}, newFakeProvider(4), nil)
	defer idx.Release()
	assert.NoError(t, idx.IndexSources(context.Background(), nil))
}
