// Package workersai provides a Cloudflare Workers AI provider. Chat and
// embedding requests go to worker endpoints fronting the Workers AI models;
// streamed completions arrive as SSE chunks carrying a "response" field.
package workersai

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

// ProviderName is the identifier of the Workers AI provider.
const ProviderName = "workersai"

func init() {
	llm.RegisterEmbeddingProvider(ProviderName, func(configMap map[string]any) (llm.EmbeddingProvider, error) {
		return NewProvider(configMap)
	})
	llm.RegisterChatProvider(ProviderName, func(configMap map[string]any) (llm.ChatProvider, error) {
		return NewProvider(configMap)
	})
}

// Config is the Workers AI provider configuration.
type Config struct {
	// ChatURL is the generative worker endpoint.
	ChatURL string `json:"chat_url" mapstructure:"chat_url"`

	// EmbedURL is the embedding worker endpoint.
	EmbedURL string `json:"embed_url" mapstructure:"embed_url"`

	// APIKey is an optional bearer token for the worker.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// ChatModel selects the generative model, e.g.
	// "@hf/nousresearch/hermes-2-pro-mistral-7b".
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// EmbedModel selects the embedding model, e.g.
	// "@cf/baai/bge-large-en-v1.5".
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`

	// Timeout is the per-request timeout for non-streaming calls.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ChatModel:  "@hf/nousresearch/hermes-2-pro-mistral-7b",
		EmbedModel: "@cf/baai/bge-large-en-v1.5",
		Timeout:    120 * time.Second,
		MaxRetries: 1,
	}
}

// Provider is the Workers AI provider implementation.
type Provider struct {
	config       *Config
	client       *httpclient.Client
	streamClient *httpclient.Client
}

// NewProvider creates a Workers AI provider from a config map.
func NewProvider(configMap map[string]any) (*Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["chat_url"].(string); ok && v != "" {
		cfg.ChatURL = v
	}
	if v, ok := configMap["embed_url"].(string); ok && v != "" {
		cfg.EmbedURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := configMap["embed_model"].(string); ok && v != "" {
		cfg.EmbedModel = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}

	if cfg.ChatURL == "" && cfg.EmbedURL == "" {
		return nil, fmt.Errorf("workersai: chat_url or embed_url is required")
	}

	return &Provider{
		config:       cfg,
		client:       httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
		streamClient: httpclient.NewClient(0, cfg.MaxRetries),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

type embeddingRequest struct {
	Text  []string `json:"text"`
	Model string   `json:"model,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Embed generates embeddings for multiple texts.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.config.EmbedURL == "" {
		return nil, fmt.Errorf("workersai: embed_url not configured")
	}

	body, err := json.Marshal(embeddingRequest{
		Text:  texts,
		Model: p.config.EmbedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.EmbedURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var embedResp embeddingResponse
	if err := p.client.DoJSON(req, &embedResp); err != nil {
		return nil, err
	}
	if embedResp.Error != "" {
		return nil, fmt.Errorf("workersai: %s", embedResp.Error)
	}

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
	Model    string        `json:"model,omitempty"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatChunk is one payload of a Workers AI response, streamed or not.
type chatChunk struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func toChatMessages(messages []llm.Message) []chatMessage {
	out := make([]chatMessage, len(messages))
	for i, msg := range messages {
		out[i] = chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return out
}

// Chat runs a blocking multi-turn completion.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	if p.config.ChatURL == "" {
		return "", fmt.Errorf("workersai: chat_url not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:    p.config.ChatModel,
		Messages: toChatMessages(messages),
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.ChatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var chunk chatChunk
	if err := p.client.DoJSON(req, &chunk); err != nil {
		return "", err
	}
	if chunk.Error != "" {
		return "", fmt.Errorf("workersai: %s", chunk.Error)
	}
	return chunk.Response, nil
}

// StreamChat runs a streamed completion and delivers tokens to fn.
func (p *Provider) StreamChat(ctx context.Context, messages []llm.Message, fn llm.TokenFunc) error {
	if p.config.ChatURL == "" {
		return fmt.Errorf("workersai: chat_url not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:    p.config.ChatModel,
		Messages: toChatMessages(messages),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.ChatURL, bytes.NewReader(body))
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

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("workersai: %s", chunk.Error)
		}
		if chunk.Response == "" {
			continue
		}
		if err := fn(chunk.Response); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// setHeaders sets the request headers.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}
}
