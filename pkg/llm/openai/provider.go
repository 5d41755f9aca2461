// Package openai provides the OpenAI LLM provider implementation.
// It also works with OpenAI-compatible services (Azure OpenAI, LocalAI,
// Cloudflare AI Gateway) via the base_url setting.
//
// Basic usage:
//
//	import _ "github.com/iranzithierry/cognova-backend/pkg/llm/openai"
//	import "github.com/iranzithierry/cognova-backend/pkg/llm"
//
//	provider, err := llm.NewChatProvider("openai", map[string]any{
//	    "api_key": "your-api-key",
//	})
package openai

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iranzithierry/cognova-backend/pkg/llm"
	"github.com/iranzithierry/cognova-backend/pkg/utils/httpclient"
	"github.com/iranzithierry/cognova-backend/pkg/utils/json"
)

// ProviderName is the identifier of the OpenAI provider.
const ProviderName = "openai"

func init() {
	llm.RegisterEmbeddingProvider(ProviderName, func(configMap map[string]any) (llm.EmbeddingProvider, error) {
		return NewProvider(configMap)
	})
	llm.RegisterChatProvider(ProviderName, func(configMap map[string]any) (llm.ChatProvider, error) {
		return NewProvider(configMap)
	})
}

// Config is the OpenAI provider configuration.
type Config struct {
	// BaseURL is the API base address. Point it at any OpenAI-compatible
	// endpoint.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey is the API key.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// EmbedModel is the model used for embeddings.
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`

	// ChatModel is the model used for chat completions.
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// Timeout is the per-request timeout for non-streaming calls.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`

	// Temperature controls generation randomness, 0.0-2.0. Zero leaves the
	// API default in place.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens caps generated tokens. Zero leaves the API default.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		EmbedModel: "text-embedding-3-small",
		ChatModel:  "gpt-4o-mini",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// Provider is the OpenAI provider implementation.
type Provider struct {
	config *Config
	client *httpclient.Client

	// streamClient has no client-level timeout: completions may stream for
	// longer than any sane fixed deadline. Cancellation is the caller's
	// context.
	streamClient *httpclient.Client
}

// NewProvider creates an OpenAI provider from a config map.
func NewProvider(configMap map[string]any) (*Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["embed_model"].(string); ok && v != "" {
		cfg.EmbedModel = v
	}
	if v, ok := configMap["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}
	if v, ok := configMap["temperature"].(float64); ok {
		cfg.Temperature = v
	}
	if v, ok := configMap["max_tokens"].(int); ok {
		cfg.MaxTokens = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api_key is required")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig creates an OpenAI provider from structured config.
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config:       cfg,
		client:       httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
		streamClient: httpclient.NewClient(0, cfg.MaxRetries),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed generates embeddings for multiple texts.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{
		Model: p.config.EmbedModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var embedResp embeddingResponse
	if err := p.client.DoJSON(req, &embedResp); err != nil {
		return nil, err
	}

	// Order by index to keep the response aligned with the input.
	embeddings := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func toChatMessages(messages []llm.Message) []chatMessage {
	out := make([]chatMessage, len(messages))
	for i, msg := range messages {
		out[i] = chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			ToolCalls:  msg.ToolCalls,
		}
	}
	return out
}

func (p *Provider) newChatRequest(messages []llm.Message, stream bool) chatRequest {
	reqBody := chatRequest{
		Model:    p.config.ChatModel,
		Messages: toChatMessages(messages),
		Stream:   stream,
	}
	if p.config.MaxTokens > 0 {
		reqBody.MaxTokens = p.config.MaxTokens
	}
	if p.config.Temperature > 0 {
		reqBody.Temperature = p.config.Temperature
	}
	return reqBody
}

// Chat runs a blocking multi-turn completion.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	body, err := json.Marshal(p.newChatRequest(messages, false))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response content")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// streamChunk is one SSE payload of a streamed completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// StreamChat runs a streamed completion and delivers delta tokens to fn.
func (p *Provider) StreamChat(ctx context.Context, messages []llm.Message, fn llm.TokenFunc) error {
	body, err := json.Marshal(p.newChatRequest(messages, true))
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")

	stream, err := p.streamClient.DoStream(req)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Providers occasionally interleave keep-alive junk; skip it.
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := fn(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

// setHeaders sets the request headers.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
}
