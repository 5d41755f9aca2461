package biz

import (
	"fmt"
	"strings"
	"time"

	"github.com/iranzithierry/cognova-backend/internal/model"
)

// BuildSystemPrompt assembles the system message for a bot. When retrieval
// produced context, the ranked results are appended in a fenced block the
// model is instructed to ground its answers in.
func BuildSystemPrompt(bot *model.Bot, now time.Time, results []*model.SearchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a helpful assistant.\n", bot.Name)
	if bot.Description != "" {
		fmt.Fprintf(&b, "%s\n", bot.Description)
	}
	if bot.SystemPrompt != "" {
		fmt.Fprintf(&b, "%s\n", bot.SystemPrompt)
	}
	fmt.Fprintf(&b, "Current time: %s\n", now.UTC().Format("2006-01-02 15:04 UTC"))

	if len(results) > 0 {
		b.WriteString("\nAnswer using the search results below. ")
		b.WriteString("If they do not contain the answer, say you do not know.\n")
		b.WriteString("```search-results\n")
		for i, r := range results {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Content)
		}
		b.WriteString("```\n")
	}

	return b.String()
}
