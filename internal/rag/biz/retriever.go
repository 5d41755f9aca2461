package biz

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/pkg/textutil"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

const (
	// stitchSeparator joins follow-up chunks onto a source's anchor chunk.
	stitchSeparator = " ... "

	// maxStitchedChunks is the number of follow-up chunks stitched per source.
	maxStitchedChunks = 2

	// minSemanticScore is the final semantic floor; results at or below it
	// are noise.
	minSemanticScore = 0.001
)

// RetrieverConfig configures the hybrid retriever.
type RetrieverConfig struct {
	// TopK is the number of results returned.
	TopK int
	// SemanticWeight is the blend weight of vector similarity.
	SemanticWeight float64
	// LexicalWeight is the blend weight of term matching. Zero disables the
	// lexical leg and the blend degenerates to the semantic score.
	LexicalWeight float64
}

// DefaultRetrieverConfig returns the default retriever configuration.
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		TopK:           5,
		SemanticWeight: 0.7,
		LexicalWeight:  0.3,
	}
}

// Retriever runs hybrid search: vector similarity blended with lexical term
// matching, with per-source stitching of adjacent evidence.
type Retriever struct {
	store    store.VectorStore
	embedder *Embedder
	config   *RetrieverConfig
}

// NewRetriever creates a hybrid retriever.
func NewRetriever(vectorStore store.VectorStore, embedder *Embedder, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = DefaultRetrieverConfig()
	}
	return &Retriever{
		store:    vectorStore,
		embedder: embedder,
		config:   config,
	}
}

// Retrieve searches a workspace for chunks relevant to the query.
func (r *Retriever) Retrieve(ctx context.Context, workspaceID, query string) ([]*model.SearchResult, error) {
	return r.RetrieveScoped(ctx, workspaceID, nil, query)
}

// RetrieveScoped is Retrieve restricted to a subset of sources. A nil or
// empty sourceIDs searches the whole workspace.
func (r *Retriever) RetrieveScoped(ctx context.Context, workspaceID string, sourceIDs []string, query string) ([]*model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrEmptyInput
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	// Over-fetch so stitching and dedup still leave topK survivors.
	hits, err := r.store.Search(ctx, &store.SearchQuery{
		WorkspaceID: workspaceID,
		Vector:      vector,
		Query:       query,
		SourceIDs:   sourceIDs,
		TopK:        r.config.TopK * 2,
	})
	if err != nil {
		return nil, apperrors.ErrSearchFailed.WithCause(err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	results := r.stitchBySource(hits, query)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	final := make([]*model.SearchResult, 0, r.config.TopK)
	for _, res := range results {
		if res.Semantic <= minSemanticScore {
			continue
		}
		final = append(final, res)
		if len(final) == r.config.TopK {
			break
		}
	}

	logger.Debugw("retrieval completed",
		"workspace_id", workspaceID,
		"hits", len(hits),
		"results", len(final))
	return final, nil
}

// stitchBySource groups hits per source in retrieval order. The first hit of
// a source is its anchor; up to maxStitchedChunks later hits of the same
// source are appended onto it. The semantic score of the group is the
// anchor's. Duplicate stitched contents keep their first occurrence.
func (r *Retriever) stitchBySource(hits []*store.ChunkHit, query string) []*model.SearchResult {
	var queryTerms []string
	if r.config.LexicalWeight > 0 {
		queryTerms = textutil.Tokenize(query, 1, nil)
	}

	type group struct {
		anchor *store.ChunkHit
		parts  []string
	}
	var order []string
	groups := make(map[string]*group)

	for _, hit := range hits {
		g, ok := groups[hit.SourceID]
		if !ok {
			groups[hit.SourceID] = &group{
				anchor: hit,
				parts:  []string{hit.Content},
			}
			order = append(order, hit.SourceID)
			continue
		}
		if len(g.parts) <= maxStitchedChunks {
			g.parts = append(g.parts, hit.Content)
		}
	}

	seen := make(map[string]struct{})
	results := make([]*model.SearchResult, 0, len(order))
	for _, sourceID := range order {
		g := groups[sourceID]
		content := strings.Join(g.parts, stitchSeparator)
		if _, dup := seen[content]; dup {
			continue
		}
		seen[content] = struct{}{}

		semantic := g.anchor.Similarity
		lexical := 0.0
		score := semantic
		if r.config.LexicalWeight > 0 {
			lexical = textutil.TermMatchScore(queryTerms, content)
			score = r.config.SemanticWeight*semantic + r.config.LexicalWeight*lexical
		}

		var meta map[string]any
		if g.anchor.Section != "" {
			meta = map[string]any{"section": g.anchor.Section}
		}
		results = append(results, &model.SearchResult{
			SourceID:  sourceID,
			Content:   content,
			Metadata:  meta,
			CreatedAt: time.Now().UTC(),
			Semantic:  semantic,
			Lexical:   lexical,
			Score:     score,
		})
	}
	return results
}
