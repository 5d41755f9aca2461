// Package llm provides a unified abstraction over LLM providers.
// Embedding and chat may use different providers and models.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// EmbeddingProvider generates vector embeddings.
type EmbeddingProvider interface {
	// Embed generates embeddings for multiple texts, index-aligned with the
	// input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name.
	Name() string
}

// TokenFunc receives one streamed token. Returning an error aborts the
// stream.
type TokenFunc func(token string) error

// ChatProvider runs chat completions.
type ChatProvider interface {
	// Chat runs a blocking multi-turn completion.
	Chat(ctx context.Context, messages []Message) (string, error)

	// StreamChat runs a completion and delivers tokens to fn as they
	// arrive. It returns after the stream ends or fn/transport fails.
	StreamChat(ctx context.Context, messages []Message, fn TokenFunc) error

	// Name returns the provider name.
	Name() string
}

// Message is one turn of a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on tool turns
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // set on assistant turns that invoked tools
}

// ToolCall mirrors the OpenAI wire shape for recorded tool invocations.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction is the function part of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Role defines the message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// EmbeddingProviderFactory creates an embedding provider from config.
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// ChatProviderFactory creates a chat provider from config.
type ChatProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = &providerRegistry{
	embeddingProviders: make(map[string]EmbeddingProviderFactory),
	chatProviders:      make(map[string]ChatProviderFactory),
}

type providerRegistry struct {
	mu                 sync.RWMutex
	embeddingProviders map[string]EmbeddingProviderFactory
	chatProviders      map[string]ChatProviderFactory
}

// RegisterEmbeddingProvider registers an embedding provider factory.
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.embeddingProviders[name] = factory
}

// RegisterChatProvider registers a chat provider factory.
func RegisterChatProvider(name string, factory ChatProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.chatProviders[name] = factory
}

// NewEmbeddingProvider creates an embedding provider by name.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.embeddingProviders[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", name)
	}
	return factory(config)
}

// NewChatProvider creates a chat provider by name.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.chatProviders[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown chat provider: %s", name)
	}
	return factory(config)
}

// ListProviders lists all registered provider names.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for name := range registry.embeddingProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range registry.chatProviders {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
