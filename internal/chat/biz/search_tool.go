package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/iranzithierry/cognova-backend/internal/model"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

// Searcher retrieves ranked chunks for a workspace query, optionally
// restricted to a subset of sources.
type Searcher interface {
	RetrieveScoped(ctx context.Context, workspaceID string, sourceIDs []string, query string) ([]*model.SearchResult, error)
}

// SearchTool lets the model search the bot's knowledge sources mid-stream.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool creates the search tool.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// Name returns the tool name.
func (t *SearchTool) Name() string { return "search" }

// Execute runs a retrieval for the "query" argument and formats the ranked
// results as a numbered block.
func (t *SearchTool) Execute(ctx context.Context, tc *ToolContext) (string, error) {
	query, _ := tc.Arguments["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", apperrors.ErrInvalidParam.WithMessage("search tool requires a query argument")
	}

	results, err := t.searcher.RetrieveScoped(ctx, tc.WorkspaceID, tc.SourceIDs, query)
	if err != nil {
		return "", apperrors.ErrToolFailed.WithCause(err)
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Content)
	}
	return b.String(), nil
}

var _ Tool = (*SearchTool)(nil)
