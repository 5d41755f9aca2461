package store_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iranzithierry/cognova-backend/internal/chat/store"
	"github.com/iranzithierry/cognova-backend/internal/model"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

func newTestStore(t *testing.T) *store.ConversationStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s := store.NewConversationStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func createBot(t *testing.T, s *store.ConversationStore) *model.Bot {
	t.Helper()
	bot := &model.Bot{
		Name:        "Support Bot",
		Description: "Answers product questions",
		Provider:    "workersai",
	}
	require.NoError(t, s.CreateBot(context.Background(), bot))
	return bot
}

func TestGetBot(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)

	got, err := s.GetBot(context.Background(), bot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Support Bot", got.Name)

	_, err = s.GetBot(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrBotNotFound)
}

func TestGetOrCreateConversation(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)
	ctx := context.Background()

	// Empty ID creates a fresh conversation.
	conv, err := s.GetOrCreateConversation(ctx, bot.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, bot.ID, conv.BotID)

	// An existing ID returns the same conversation.
	again, err := s.GetOrCreateConversation(ctx, bot.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// An unknown ID is honored and created.
	named, err := s.GetOrCreateConversation(ctx, bot.ID, "conv_custom")
	require.NoError(t, err)
	assert.Equal(t, "conv_custom", named.ID)
}

func TestSaveAndGetMessages(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)
	ctx := context.Background()

	conv, err := s.GetOrCreateConversation(ctx, bot.ID, "")
	require.NoError(t, err)

	user := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        "How do refunds work?",
	}
	require.NoError(t, s.SaveMessage(ctx, user))

	assistant := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        "Refunds are processed in five days.",
	}
	require.NoError(t, assistant.SetToolCalls([]model.ToolCall{{
		ID:   "call_1",
		Type: "function",
		Function: model.ToolCallFunction{
			Name:      "search",
			Arguments: `{"query":"refunds"}`,
		},
	}}))
	require.NoError(t, s.SaveMessage(ctx, assistant))

	messages, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, model.RoleAssistant, messages[1].Role)

	calls, err := messages[1].GetToolCalls()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Function.Name)
}

func TestDeleteMessage(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)
	ctx := context.Background()

	conv, err := s.GetOrCreateConversation(ctx, bot.ID, "")
	require.NoError(t, err)

	msg := &model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        "rolled back",
	}
	require.NoError(t, s.SaveMessage(ctx, msg))
	require.NoError(t, s.DeleteMessage(ctx, msg.ID))

	messages, err := s.GetMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Deleting an empty ID is a no-op.
	assert.NoError(t, s.DeleteMessage(ctx, ""))
}

func TestSourcesLifecycle(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)
	ctx := context.Background()

	src := &model.Source{
		BotID: bot.ID,
		URL:   "https://example.com/docs",
		Title: "Docs",
	}
	require.NoError(t, s.CreateSource(ctx, src))
	assert.Equal(t, model.SourceStatusPending, src.Status)

	require.NoError(t, s.UpdateSourceStatus(ctx, src.ID, model.SourceStatusIndexed, 12))

	sources, err := s.ListSources(ctx, bot.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, model.SourceStatusIndexed, sources[0].Status)
	assert.Equal(t, 12, sources[0].ChunkNum)
}

func TestSourceURLsByID(t *testing.T) {
	s := newTestStore(t)
	bot := createBot(t, s)
	ctx := context.Background()

	docs := &model.Source{BotID: bot.ID, URL: "https://example.com/docs", Title: "Docs"}
	pricing := &model.Source{BotID: bot.ID, URL: "https://example.com/pricing", Title: "Pricing"}
	pasted := &model.Source{BotID: bot.ID, Title: "Pasted text"} // no URL
	require.NoError(t, s.CreateSource(ctx, docs))
	require.NoError(t, s.CreateSource(ctx, pricing))
	require.NoError(t, s.CreateSource(ctx, pasted))

	// Input order is the citation order; URL-less and unknown IDs drop out.
	urls, err := s.SourceURLsByID(ctx, []string{pricing.ID, pasted.ID, docs.ID, "src_missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/pricing", "https://example.com/docs"}, urls)

	urls, err = s.SourceURLsByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
