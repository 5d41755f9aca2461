// Package store persists bots, conversations, messages, and sources.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/iranzithierry/cognova-backend/internal/model"
	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/id"
)

// ConversationStore persists chat state in a relational database.
type ConversationStore struct {
	db *gorm.DB
}

// NewConversationStore creates a conversation store.
func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// AutoMigrate creates or updates the chat tables.
func (s *ConversationStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(
		&model.Bot{},
		&model.Conversation{},
		&model.Message{},
		&model.Source{},
	); err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetBot fetches a bot by ID.
func (s *ConversationStore) GetBot(ctx context.Context, botID string) (*model.Bot, error) {
	var bot model.Bot
	if err := s.db.WithContext(ctx).First(&bot, "id = ?", botID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBotNotFound
		}
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return &bot, nil
}

// CreateBot stores a new bot, generating its ID when empty.
func (s *ConversationStore) CreateBot(ctx context.Context, bot *model.Bot) error {
	if bot.ID == "" {
		bot.ID = id.NewWithPrefix("bot")
	}
	if err := s.db.WithContext(ctx).Create(bot).Error; err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetOrCreateConversation returns the conversation, creating it when the ID
// is empty or unknown.
func (s *ConversationStore) GetOrCreateConversation(ctx context.Context, botID, conversationID string) (*model.Conversation, error) {
	if conversationID != "" {
		var conv model.Conversation
		err := s.db.WithContext(ctx).First(&conv, "id = ? AND bot_id = ?", conversationID, botID).Error
		if err == nil {
			return &conv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDatabase.WithCause(err)
		}
	}

	conv := &model.Conversation{
		ID:    id.NewWithPrefix("conv"),
		BotID: botID,
	}
	if conversationID != "" {
		conv.ID = conversationID
	}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return conv, nil
}

// SaveMessage persists one conversation turn, generating its ID when empty.
func (s *ConversationStore) SaveMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = id.NewWithPrefix("msg")
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// GetMessages returns a conversation's turns in chronological order.
func (s *ConversationStore) GetMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return messages, nil
}

// DeleteMessage removes one turn, used to roll back a user turn after a
// failed stream.
func (s *ConversationStore) DeleteMessage(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&model.Message{}, "id = ?", messageID).Error; err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// ListSources returns a bot's knowledge sources.
func (s *ConversationStore) ListSources(ctx context.Context, botID string) ([]*model.Source, error) {
	var sources []*model.Source
	err := s.db.WithContext(ctx).
		Where("bot_id = ?", botID).
		Order("created_at ASC").
		Find(&sources).Error
	if err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return sources, nil
}

// SourceURLsByID resolves source IDs to their URLs, preserving the input
// order. Sources without a URL are skipped; duplicate URLs collapse.
func (s *ConversationStore) SourceURLsByID(ctx context.Context, sourceIDs []string) ([]string, error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	var sources []*model.Source
	if err := s.db.WithContext(ctx).
		Where("id IN ?", sourceIDs).
		Find(&sources).Error; err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}

	byID := make(map[string]string, len(sources))
	for _, src := range sources {
		byID[src.ID] = src.URL
	}

	urls := make([]string, 0, len(sourceIDs))
	seen := make(map[string]struct{}, len(sourceIDs))
	for _, sid := range sourceIDs {
		url := byID[sid]
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls, nil
}

// CreateSource stores a new source, generating its ID when empty.
func (s *ConversationStore) CreateSource(ctx context.Context, src *model.Source) error {
	if src.ID == "" {
		src.ID = id.NewWithPrefix("src")
	}
	if src.Status == "" {
		src.Status = model.SourceStatusPending
	}
	if err := s.db.WithContext(ctx).Create(src).Error; err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}

// UpdateSourceStatus records an ingestion status transition.
func (s *ConversationStore) UpdateSourceStatus(ctx context.Context, sourceID, status string, chunkNum int) error {
	updates := map[string]any{"status": status}
	if chunkNum > 0 {
		updates["chunk_num"] = chunkNum
	}
	if err := s.db.WithContext(ctx).
		Model(&model.Source{}).
		Where("id = ?", sourceID).
		Updates(updates).Error; err != nil {
		return apperrors.ErrDatabase.WithCause(err)
	}
	return nil
}
