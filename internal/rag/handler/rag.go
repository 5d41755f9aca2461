// Package handler provides HTTP handlers for the retrieval service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/biz"
	"github.com/iranzithierry/cognova-backend/internal/rag/metrics"
	"github.com/iranzithierry/cognova-backend/internal/rag/store"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

// searchTimeout bounds one search request end to end.
const searchTimeout = 30 * time.Second

// SourceStore is the relational side of source management.
type SourceStore interface {
	CreateSource(ctx context.Context, src *model.Source) error
	ListSources(ctx context.Context, botID string) ([]*model.Source, error)
}

// RAGHandler handles retrieval and ingestion HTTP requests.
type RAGHandler struct {
	search  *biz.SearchService
	indexer *biz.Indexer
	sources SourceStore
	vectors store.VectorStore
	cache   *biz.SearchCache
}

// NewRAGHandler creates a retrieval handler. cache may be nil.
func NewRAGHandler(search *biz.SearchService, indexer *biz.Indexer, sources SourceStore, vectors store.VectorStore, cache *biz.SearchCache) *RAGHandler {
	return &RAGHandler{
		search:  search,
		indexer: indexer,
		sources: sources,
		vectors: vectors,
		cache:   cache,
	}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the search endpoint request body. SourceIDs optionally
// restricts the search to a subset of the bot's sources.
type SearchRequest struct {
	Query     string   `json:"query" binding:"required"`
	SourceIDs []string `json:"source_ids"`
}

// Search runs a hybrid search over a bot's sources.
func (h *RAGHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	results, err := h.search.RetrieveScoped(ctx, c.Param("bot_id"), req.SourceIDs, req.Query)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrEmptyInput.Code) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if results == nil {
		results = []*model.SearchResult{}
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: results})
}

// CreateSourceRequest is the source ingestion request body.
type CreateSourceRequest struct {
	Content string `json:"content" binding:"required"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

// CreateSource registers a source and ingests it in the background. The
// source's status moves through indexing to indexed or failed.
func (h *RAGHandler) CreateSource(c *gin.Context) {
	var req CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	botID := c.Param("bot_id")
	src := &model.Source{
		BotID: botID,
		URL:   req.URL,
		Title: req.Title,
	}
	if err := h.sources.CreateSource(c.Request.Context(), src); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	// Ingestion outlives the request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.indexer.IndexSource(ctx, &biz.IndexRequest{
			WorkspaceID: botID,
			SourceID:    src.ID,
			Content:     req.Content,
		}); err != nil {
			logger.Warnw("source ingestion failed",
				"bot_id", botID,
				"source_id", src.ID,
				"error", err.Error())
		}
	}()

	c.JSON(http.StatusAccepted, SuccessResponse{Code: 0, Message: "source accepted", Data: src})
}

// ListSources returns a bot's sources with their ingestion status.
func (h *RAGHandler) ListSources(c *gin.Context) {
	sources, err := h.sources.ListSources(c.Request.Context(), c.Param("bot_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if sources == nil {
		sources = []*model.Source{}
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: sources})
}

// Stats returns retrieval statistics: stored chunk count, process counters,
// and cache state.
func (h *RAGHandler) Stats(c *gin.Context) {
	stats := map[string]any{
		"counters": metrics.Default().Snapshot(),
	}

	if count, err := h.vectors.Stats(c.Request.Context()); err == nil {
		stats["chunk_count"] = count
	} else {
		logger.Warnw("failed to read vector store stats", "error", err.Error())
	}

	if h.cache != nil {
		if cacheStats, err := h.cache.Stats(c.Request.Context()); err == nil {
			stats["cache"] = cacheStats
		}
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: stats})
}

// ClearCache drops all cached search results.
func (h *RAGHandler) ClearCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "cache disabled"})
		return
	}
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "cache cleared"})
}

// Health is the liveness probe.
func (h *RAGHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
