package biz_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/rag/biz"
)

func results(contents ...string) []*model.SearchResult {
	out := make([]*model.SearchResult, len(contents))
	for i, c := range contents {
		out[i] = &model.SearchResult{
			SourceID: string(rune('a' + i)),
			Content:  c,
			Score:    1.0 - float64(i)*0.1,
		}
	}
	return out
}

func TestBoosterRerankRareTermsWin(t *testing.T) {
	b := biz.NewBooster(nil)

	// "refund" appears in two results, "policy" in one: the result carrying
	// the rarer term must rank first.
	input := results(
		"our refund process takes five days",
		"the refund policy covers all plans",
		"shipping takes two weeks",
	)
	reranked := b.Rerank("refund policy", input)

	require.Len(t, reranked, 2)
	assert.Equal(t, "the refund policy covers all plans", reranked[0].Content)
	assert.Equal(t, "our refund process takes five days", reranked[1].Content)

	// importance(refund) = 1 + ln(3/3) = 1.0
	// importance(policy) = 1 + ln(3/2)
	wantTop := (1.0 + (1 + math.Log(3.0/2.0))) / 2
	assert.InDelta(t, wantTop, reranked[0].Boost, 1e-9)
	assert.InDelta(t, 1.0, reranked[1].Boost, 1e-9)
}

func TestBoosterRerankDropsNonMatching(t *testing.T) {
	b := biz.NewBooster(nil)

	input := results(
		"completely unrelated text",
		"another unrelated entry",
	)
	reranked := b.Rerank("billing invoice", input)
	assert.Empty(t, reranked)
}

func TestBoosterRerankStopwordOnlyQuery(t *testing.T) {
	b := biz.NewBooster(nil)

	input := results("some content here")
	assert.Nil(t, b.Rerank("the and of", input))
	assert.Nil(t, b.Rerank("an it", input))
}

func TestBoosterRerankTieBreakPreservesOrder(t *testing.T) {
	b := biz.NewBooster(nil)

	// Identical term sets produce identical boosts; input order must hold.
	input := results(
		"billing details first",
		"billing details second",
	)
	reranked := b.Rerank("billing", input)

	require.Len(t, reranked, 2)
	assert.Equal(t, "billing details first", reranked[0].Content)
	assert.Equal(t, "billing details second", reranked[1].Content)
	assert.Equal(t, reranked[0].Boost, reranked[1].Boost)
}

func TestBoosterRerankDoesNotMutateInput(t *testing.T) {
	b := biz.NewBooster(nil)

	input := results("billing details")
	_ = b.Rerank("billing", input)
	assert.Zero(t, input[0].Boost)
}

func TestBoosterRerankShortTermsIgnored(t *testing.T) {
	b := biz.NewBooster(nil)

	// Terms under three characters never participate.
	input := results("go is a language")
	assert.Nil(t, b.Rerank("go", input))
}

func TestBoosterRerankEmptyInput(t *testing.T) {
	b := biz.NewBooster(nil)
	assert.Nil(t, b.Rerank("billing", nil))
}
