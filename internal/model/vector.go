package model

import "time"

// Chunk is a contiguous slice of a source document produced by the chunker.
// Start and End are rune offsets into the cleaned input text.
type Chunk struct {
	Index            int    `json:"index"`
	Content          string `json:"content"`
	Start            int    `json:"start"`
	End              int    `json:"end"`
	SectionTitle     string `json:"section_title,omitempty"`
	PrecedingContext string `json:"preceding_context,omitempty"`
	FollowingContext string `json:"following_context,omitempty"`
}

// EmbeddedChunk is a chunk with its embedding, ready for the vector store.
type EmbeddedChunk struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	SourceID    string    `json:"source_id"`
	Chunk       `json:"chunk"`
	Embedding   []float32 `json:"embedding"`
}

// SearchResult is a per-source retrieval result. Content is the anchor chunk
// with up to two surrounding chunks stitched on. Results are transient,
// produced per query.
type SearchResult struct {
	SourceID  string         `json:"source_id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Semantic  float64        `json:"semantic"`
	Lexical   float64        `json:"lexical"`
	Score     float64        `json:"score"`
	Boost     float64        `json:"boost,omitempty"`
}
