// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/iranzithierry/cognova-backend/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions defines the configuration of one LLM provider role. The
// embedding and chat roles may point at different providers.
type ProviderOptions struct {
	// Provider is the provider name (openai, workersai).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base address (openai-compatible providers).
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// ChatURL is the generative worker endpoint (workersai).
	ChatURL string `json:"chat-url" mapstructure:"chat-url"`

	// EmbedURL is the embedding worker endpoint (workersai).
	EmbedURL string `json:"embed-url" mapstructure:"embed-url"`

	// APIKey is the API key or bearer token.
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model is the model name for this role.
	Model string `json:"model" mapstructure:"model"`

	// Timeout is the per-request timeout for non-streaming calls.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewEmbeddingOptions creates default embedding provider options.
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "workersai",
		Model:      "@cf/baai/bge-large-en-v1.5",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewChatOptions creates default chat provider options.
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "workersai",
		Model:      "@hf/nousresearch/hermes-2-pro-mistral-7b",
		Timeout:    120 * time.Second,
		MaxRetries: 1,
	}
}

// ToConfigMap converts the options to a config map for the provider factory.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"chat_url":    o.ChatURL,
		"embed_url":   o.EmbedURL,
		"api_key":     o.APIKey,
		"embed_model": o.Model,
		"chat_model":  o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Provider, options.Join(prefixes...)+"llm.provider", o.Provider, "LLM provider (openai, workersai).")
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"llm.base-url", o.BaseURL, "LLM API base URL (openai-compatible providers).")
	fs.StringVar(&o.ChatURL, options.Join(prefixes...)+"llm.chat-url", o.ChatURL, "Generative worker endpoint (workersai).")
	fs.StringVar(&o.EmbedURL, options.Join(prefixes...)+"llm.embed-url", o.EmbedURL, "Embedding worker endpoint (workersai).")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"llm.api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, options.Join(prefixes...)+"llm.model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"llm.timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"llm.max-retries", o.MaxRetries, "LLM maximum number of retries.")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for openai provider"))
	}
	if o.Provider == "workersai" && o.ChatURL == "" && o.EmbedURL == "" {
		errs = append(errs, fmt.Errorf("chat-url or embed-url is required for workersai provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return nil
}
