// Package model provides data models for the Cognova backend.
package model

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Source ingestion statuses.
const (
	SourceStatusPending  = "pending"
	SourceStatusIndexing = "indexing"
	SourceStatusIndexed  = "indexed"
	SourceStatusFailed   = "failed"
)

// Bot represents a chatbot configuration.
type Bot struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Model        string    `json:"model" gorm:"type:varchar(128)"`
	Provider     string    `json:"provider" gorm:"type:varchar(64);default:'openai'"`
	SystemPrompt string    `json:"system_prompt,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Bot.
func (Bot) TableName() string {
	return "bots"
}

// Conversation represents a chat conversation belonging to a bot.
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	BotID     string    `json:"bot_id" gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Source represents an ingested knowledge source for a bot.
type Source struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	BotID     string    `json:"bot_id" gorm:"type:varchar(64);index;not null"`
	URL       string    `json:"url" gorm:"type:varchar(512)"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	Status    string    `json:"status" gorm:"type:varchar(32);default:'pending'"` // pending, indexing, indexed, failed
	ChunkNum  int       `json:"chunk_num" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Source.
func (Source) TableName() string {
	return "sources"
}

// ToolCallFunction is the function part of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded arguments object
}

// ToolCall is a structured tool invocation recorded on an assistant message.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // always "function"
	Function ToolCallFunction `json:"function"`
}

// Message represents a single conversation turn.
type Message struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	ConversationID string    `json:"conversation_id" gorm:"type:varchar(64);index;not null"`
	Role           string    `json:"role" gorm:"type:varchar(16);not null"`
	Content        string    `json:"content" gorm:"type:text"`
	ToolCalls      string    `json:"-" gorm:"type:text"`        // JSON array of ToolCall, empty when none
	ToolCallID     string    `json:"tool_call_id,omitempty" gorm:"type:varchar(64)"` // set on tool turns
	SourceURLs     string    `json:"-" gorm:"type:text"`        // JSON array of strings
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// SetToolCalls serializes calls onto the message.
func (m *Message) SetToolCalls(calls []ToolCall) error {
	if len(calls) == 0 {
		m.ToolCalls = ""
		return nil
	}
	data, err := json.Marshal(calls)
	if err != nil {
		return err
	}
	m.ToolCalls = string(data)
	return nil
}

// GetToolCalls deserializes the recorded tool calls, nil when none.
func (m *Message) GetToolCalls() ([]ToolCall, error) {
	if m.ToolCalls == "" {
		return nil, nil
	}
	var calls []ToolCall
	if err := json.Unmarshal([]byte(m.ToolCalls), &calls); err != nil {
		return nil, err
	}
	return calls, nil
}
