package biz

import (
	"context"

	"github.com/kart-io/logger"

	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/llm"

	"github.com/iranzithierry/cognova-backend/internal/pkg/textutil"
)

// EmbedderConfig configures the embedding batcher.
type EmbedderConfig struct {
	// BatchSize is the number of texts per provider request.
	BatchSize int
	// Dimension is the expected embedding dimension.
	Dimension int
	// MaxTextSize is the truncation bound for single-text embedding, in runes.
	MaxTextSize int
}

// DefaultEmbedderConfig returns the default embedder configuration.
func DefaultEmbedderConfig() *EmbedderConfig {
	return &EmbedderConfig{
		BatchSize:   100,
		Dimension:   1024,
		MaxTextSize: 2000,
	}
}

// Embedder batches texts through an embedding provider. A call either embeds
// every input or fails as a whole; partial results never escape.
type Embedder struct {
	provider llm.EmbeddingProvider
	config   *EmbedderConfig
}

// NewEmbedder creates an embedding batcher.
func NewEmbedder(provider llm.EmbeddingProvider, config *EmbedderConfig) *Embedder {
	if config == nil {
		config = DefaultEmbedderConfig()
	}
	return &Embedder{
		provider: provider,
		config:   config,
	}
}

// EmbedTexts embeds all texts in input order, batching provider requests.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			logger.Warnw("embedding batch failed",
				"provider", e.provider.Name(),
				"batch_start", start,
				"batch_size", end-start,
				"error", err.Error())
			return nil, apperrors.ErrEmbeddingFailed.WithCause(err)
		}
		if len(batch) != end-start {
			return nil, apperrors.ErrEmbeddingFailed.WithMessagef(
				"provider returned %d embeddings for %d texts", len(batch), end-start)
		}

		for i, embedding := range batch {
			if err := e.validateDimension(embedding); err != nil {
				logger.Warnw("embedding dimension mismatch",
					"provider", e.provider.Name(),
					"index", start+i,
					"got", len(embedding),
					"want", e.config.Dimension)
				return nil, err
			}
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// EmbedQuery embeds a single text, truncating it to the configured bound
// first.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = textutil.TruncateString(text, e.config.MaxTextSize)

	embedding, err := e.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, apperrors.ErrEmbeddingFailed.WithCause(err)
	}
	if err := e.validateDimension(embedding); err != nil {
		return nil, err
	}
	return embedding, nil
}

func (e *Embedder) validateDimension(embedding []float32) error {
	if e.config.Dimension > 0 && len(embedding) != e.config.Dimension {
		return apperrors.ErrEmbeddingFailed.WithMessagef(
			"embedding dimension %d does not match configured %d", len(embedding), e.config.Dimension)
	}
	return nil
}
