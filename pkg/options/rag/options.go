// Package rag provides retrieval pipeline configuration options.
package rag

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/iranzithierry/cognova-backend/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval pipeline configuration.
type Options struct {
	// ChunkMaxSize is the maximum chunk size in runes.
	ChunkMaxSize int `json:"chunk-max-size" mapstructure:"chunk-max-size"`

	// ChunkOverlap is the overlap between consecutive chunks in runes.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// ContextWindow is the size of the preceding/following context captured
	// around each chunk.
	ContextWindow int `json:"context-window" mapstructure:"context-window"`

	// EmbedBatchSize is the number of texts per embedding request.
	EmbedBatchSize int `json:"embed-batch-size" mapstructure:"embed-batch-size"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// TopK is the number of results to return from a search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// SemanticWeight is the hybrid blend weight of vector similarity.
	SemanticWeight float64 `json:"semantic-weight" mapstructure:"semantic-weight"`

	// LexicalWeight is the hybrid blend weight of term matching.
	LexicalWeight float64 `json:"lexical-weight" mapstructure:"lexical-weight"`

	// Collection is the name of the vector collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// Store selects the vector store backend (milvus, memory).
	Store string `json:"store" mapstructure:"store"`

	// CacheEnabled enables the search result cache.
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`

	// CacheTTL is the search cache expiry.
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`

	// IndexWorkers is the size of the background indexing pool.
	IndexWorkers int `json:"index-workers" mapstructure:"index-workers"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkMaxSize:   2000,
		ChunkOverlap:   50,
		ContextWindow:  200,
		EmbedBatchSize: 100,
		EmbeddingDim:   1024, // bge-large-en-v1.5 dimension
		TopK:           5,
		SemanticWeight: 0.7,
		LexicalWeight:  0.3,
		Collection:     "cognova_chunks",
		Store:          "milvus",
		CacheEnabled:   true,
		CacheTTL:       1 * time.Hour,
		IndexWorkers:   4,
	}
}

// AddFlags adds flags for retrieval options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.ChunkMaxSize, options.Join(prefixes...)+"rag.chunk-max-size", o.ChunkMaxSize, "Maximum chunk size in runes.")
	fs.IntVar(&o.ChunkOverlap, options.Join(prefixes...)+"rag.chunk-overlap", o.ChunkOverlap, "Overlap between consecutive chunks in runes.")
	fs.IntVar(&o.ContextWindow, options.Join(prefixes...)+"rag.context-window", o.ContextWindow, "Context window captured around each chunk.")
	fs.IntVar(&o.EmbedBatchSize, options.Join(prefixes...)+"rag.embed-batch-size", o.EmbedBatchSize, "Number of texts per embedding request.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"rag.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Number of results from a search.")
	fs.Float64Var(&o.SemanticWeight, options.Join(prefixes...)+"rag.semantic-weight", o.SemanticWeight, "Hybrid blend weight of vector similarity.")
	fs.Float64Var(&o.LexicalWeight, options.Join(prefixes...)+"rag.lexical-weight", o.LexicalWeight, "Hybrid blend weight of term matching.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"rag.collection", o.Collection, "Vector collection name.")
	fs.StringVar(&o.Store, options.Join(prefixes...)+"rag.store", o.Store, "Vector store backend (milvus, memory).")
	fs.BoolVar(&o.CacheEnabled, options.Join(prefixes...)+"rag.cache-enabled", o.CacheEnabled, "Enable the search result cache.")
	fs.DurationVar(&o.CacheTTL, options.Join(prefixes...)+"rag.cache-ttl", o.CacheTTL, "Search cache TTL.")
	fs.IntVar(&o.IndexWorkers, options.Join(prefixes...)+"rag.index-workers", o.IndexWorkers, "Background indexing pool size.")
}

// Validate validates the retrieval options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkMaxSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk-max-size must be positive"))
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkMaxSize {
		errs = append(errs, fmt.Errorf("chunk-overlap must be in [0, chunk-max-size)"))
	}
	if o.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embed-batch-size must be positive"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.SemanticWeight < 0 || o.LexicalWeight < 0 {
		errs = append(errs, fmt.Errorf("blend weights must be non-negative"))
	}
	if o.Store != "milvus" && o.Store != "memory" {
		errs = append(errs, fmt.Errorf("store must be one of milvus, memory"))
	}
	return errs
}
