package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iranzithierry/cognova-backend/internal/model"
)

func TestBuildSystemPrompt(t *testing.T) {
	bot := &model.Bot{
		Name:         "Atlas",
		Description:  "Answers questions about the Atlas platform.",
		SystemPrompt: "Keep answers short.",
	}
	now := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

	prompt := BuildSystemPrompt(bot, now, nil)

	assert.Contains(t, prompt, "You are Atlas, a helpful assistant.")
	assert.Contains(t, prompt, "Answers questions about the Atlas platform.")
	assert.Contains(t, prompt, "Keep answers short.")
	assert.Contains(t, prompt, "Current time: 2026-03-14 09:26 UTC")
	assert.NotContains(t, prompt, "search-results")
}

func TestBuildSystemPrompt_WithResults(t *testing.T) {
	bot := &model.Bot{Name: "Atlas"}
	results := []*model.SearchResult{
		{Content: "Plans start at $10/month."},
		{Content: "Annual billing saves 20%."},
	}

	prompt := BuildSystemPrompt(bot, time.Now(), results)

	assert.Contains(t, prompt, "```search-results")
	assert.Contains(t, prompt, "[1] Plans start at $10/month.")
	assert.Contains(t, prompt, "[2] Annual billing saves 20%.")
}

func TestBuildSystemPrompt_MinimalBot(t *testing.T) {
	prompt := BuildSystemPrompt(&model.Bot{Name: "Atlas"}, time.Now(), nil)
	assert.Contains(t, prompt, "You are Atlas")
	// No stray blank sections for unset fields.
	assert.NotContains(t, prompt, "\n\n\n")
}
