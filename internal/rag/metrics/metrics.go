// Package metrics tracks retrieval and chat counters.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Metrics holds process-wide counters. All methods are safe for concurrent
// use.
type Metrics struct {
	searches       atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	chunksIndexed  atomic.Int64
	sourcesIndexed atomic.Int64
	chatStreams    atomic.Int64
	toolCalls      atomic.Int64
	streamErrors   atomic.Int64
}

var (
	instance *Metrics
	once     sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	once.Do(func() {
		instance = &Metrics{}
	})
	return instance
}

// IncSearches records one search.
func (m *Metrics) IncSearches() { m.searches.Add(1) }

// IncCacheHits records one cache hit.
func (m *Metrics) IncCacheHits() { m.cacheHits.Add(1) }

// IncCacheMisses records one cache miss.
func (m *Metrics) IncCacheMisses() { m.cacheMisses.Add(1) }

// AddChunksIndexed records n ingested chunks.
func (m *Metrics) AddChunksIndexed(n int) { m.chunksIndexed.Add(int64(n)) }

// IncSourcesIndexed records one ingested source.
func (m *Metrics) IncSourcesIndexed() { m.sourcesIndexed.Add(1) }

// IncChatStreams records one chat stream.
func (m *Metrics) IncChatStreams() { m.chatStreams.Add(1) }

// IncToolCalls records one executed tool call.
func (m *Metrics) IncToolCalls() { m.toolCalls.Add(1) }

// IncStreamErrors records one failed stream.
func (m *Metrics) IncStreamErrors() { m.streamErrors.Add(1) }

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"searches":        m.searches.Load(),
		"cache_hits":      m.cacheHits.Load(),
		"cache_misses":    m.cacheMisses.Load(),
		"chunks_indexed":  m.chunksIndexed.Load(),
		"sources_indexed": m.sourcesIndexed.Load(),
		"chat_streams":    m.chatStreams.Load(),
		"tool_calls":      m.toolCalls.Load(),
		"stream_errors":   m.streamErrors.Load(),
	}
}
