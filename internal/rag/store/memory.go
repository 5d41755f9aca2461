package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iranzithierry/cognova-backend/internal/model"
)

// defaultNprobe is the number of clusters probed per query.
const defaultNprobe = 4

type memEntry struct {
	chunkID   string
	sourceID  string
	index     int
	section   string
	content   string
	embedding []float32
}

// memWorkspace holds one workspace's entries and its cached index. The
// entries slice is copy-on-write: mutations install a fresh slice and bump
// gen, so a reader holding an old slice is never affected.
type memWorkspace struct {
	entries  []*memEntry
	gen      uint64
	index    *clusterIndex
	indexGen uint64
}

// MemoryStore implements VectorStore with an in-memory approximate index.
// Per-workspace indexes are built lazily on first search, cached, and
// invalidated by upserts and deletes.
type MemoryStore struct {
	mu         sync.RWMutex
	workspaces map[string]*memWorkspace
	nprobe     int
}

// NewMemoryStore creates an in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workspaces: make(map[string]*memWorkspace),
		nprobe:     defaultNprobe,
	}
}

// EnsureCollection is a no-op for the memory store.
func (s *MemoryStore) EnsureCollection(_ context.Context, _ int) error {
	return nil
}

// Upsert inserts embedded chunks, replacing entries with the same chunk ID.
func (s *MemoryStore) Upsert(_ context.Context, chunks []*model.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	byWorkspace := make(map[string][]*memEntry)
	for _, chunk := range chunks {
		byWorkspace[chunk.WorkspaceID] = append(byWorkspace[chunk.WorkspaceID], &memEntry{
			chunkID:   chunk.ID,
			sourceID:  chunk.SourceID,
			index:     chunk.Index,
			section:   chunk.SectionTitle,
			content:   chunk.Content,
			embedding: chunk.Embedding,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for workspaceID, incoming := range byWorkspace {
		w := s.workspaces[workspaceID]
		if w == nil {
			w = &memWorkspace{}
			s.workspaces[workspaceID] = w
		}

		replaced := make(map[string]struct{}, len(incoming))
		for _, e := range incoming {
			replaced[e.chunkID] = struct{}{}
		}

		next := make([]*memEntry, 0, len(w.entries)+len(incoming))
		for _, e := range w.entries {
			if _, ok := replaced[e.chunkID]; !ok {
				next = append(next, e)
			}
		}
		next = append(next, incoming...)

		w.entries = next
		w.gen++
	}
	return nil
}

// Search probes the workspace's clustered index and ranks candidates by
// L2-derived similarity.
func (s *MemoryStore) Search(_ context.Context, q *SearchQuery) ([]*ChunkHit, error) {
	idx, _ := s.workspaceIndex(q.WorkspaceID)
	if idx == nil {
		return nil, nil
	}

	var scope map[string]struct{}
	if len(q.SourceIDs) > 0 {
		scope = make(map[string]struct{}, len(q.SourceIDs))
		for _, id := range q.SourceIDs {
			scope[id] = struct{}{}
		}
	}

	candidates := idx.probe(q.Vector, s.nprobe)
	hits := make([]*ChunkHit, 0, len(candidates))
	for _, e := range candidates {
		if scope != nil {
			if _, ok := scope[e.sourceID]; !ok {
				continue
			}
		}
		similarity := 1.0 - l2Distance(q.Vector, e.embedding)
		if similarity <= minSimilarity {
			continue
		}
		hits = append(hits, &ChunkHit{
			ChunkID:    e.chunkID,
			SourceID:   e.sourceID,
			Index:      e.index,
			Section:    e.section,
			Content:    e.content,
			Similarity: similarity,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	applyVerbatimPreference(hits, q.Query)

	if q.TopK > 0 && len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

// DeleteSource removes all chunks of one source in a workspace.
func (s *MemoryStore) DeleteSource(_ context.Context, workspaceID, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.workspaces[workspaceID]
	if w == nil {
		return nil
	}

	next := make([]*memEntry, 0, len(w.entries))
	for _, e := range w.entries {
		if e.sourceID != sourceID {
			next = append(next, e)
		}
	}
	if len(next) == len(w.entries) {
		return nil
	}

	w.entries = next
	w.gen++
	return nil
}

// Stats returns the number of stored chunks across all workspaces.
func (s *MemoryStore) Stats(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, w := range s.workspaces {
		total += int64(len(w.entries))
	}
	return total, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}

// workspaceIndex returns the cached index for a workspace, building it when
// missing or stale. The build runs outside the lock; the result is only
// installed if the workspace has not changed underneath it.
func (s *MemoryStore) workspaceIndex(workspaceID string) (*clusterIndex, []*memEntry) {
	s.mu.RLock()
	w := s.workspaces[workspaceID]
	if w == nil || len(w.entries) == 0 {
		s.mu.RUnlock()
		return nil, nil
	}
	entries := w.entries
	gen := w.gen
	if w.index != nil && w.indexGen == gen {
		idx := w.index
		s.mu.RUnlock()
		return idx, entries
	}
	s.mu.RUnlock()

	built := buildClusterIndex(entries)

	s.mu.Lock()
	if w.gen == gen {
		w.index = built
		w.indexGen = gen
	}
	s.mu.Unlock()
	return built, entries
}

// applyVerbatimPreference promotes, within each source, a candidate that
// contains the query text verbatim (case-insensitive) into the source's
// best-ranked slot.
func applyVerbatimPreference(hits []*ChunkHit, query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return
	}

	anchorIdx := make(map[string]int)
	for i, h := range hits {
		anchor, seen := anchorIdx[h.SourceID]
		if !seen {
			anchorIdx[h.SourceID] = i
			continue
		}
		if strings.Contains(strings.ToLower(hits[anchor].Content), q) {
			continue
		}
		if strings.Contains(strings.ToLower(h.Content), q) {
			hits[anchor], hits[i] = hits[i], hits[anchor]
		}
	}
}

var _ VectorStore = (*MemoryStore)(nil)
