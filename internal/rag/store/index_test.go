package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int, vecFn func(i int) []float32) []*memEntry {
	entries := make([]*memEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = &memEntry{
			chunkID:   fmt.Sprintf("c%d", i),
			sourceID:  "s1",
			embedding: vecFn(i),
		}
	}
	return entries
}

func TestBuildClusterIndexSmallCollection(t *testing.T) {
	// Up to 19 entries nlist is 1: a single cluster holding everything.
	entries := makeEntries(5, func(i int) []float32 {
		return []float32{float32(i), 1, 0}
	})

	idx := buildClusterIndex(entries)
	require.Len(t, idx.clusters, 1)
	assert.Len(t, idx.clusters[0].entries, 5)
}

func TestBuildClusterIndexEmpty(t *testing.T) {
	idx := buildClusterIndex(nil)
	assert.Empty(t, idx.clusters)
	assert.Empty(t, idx.probe([]float32{1, 0, 0}, 4))
}

func TestBuildClusterIndexPartitions(t *testing.T) {
	// Two well-separated groups of 20 entries each: nlist = 4, and no
	// cluster should mix the groups.
	entries := make([]*memEntry, 0, 40)
	entries = append(entries, makeEntries(20, func(i int) []float32 {
		return []float32{1, float32(i) * 0.001, 0}
	})...)
	more := makeEntries(20, func(i int) []float32 {
		return []float32{0, float32(i) * 0.001, 1}
	})
	for i, e := range more {
		e.chunkID = fmt.Sprintf("d%d", i)
		entries = append(entries, e)
	}

	idx := buildClusterIndex(entries)
	require.NotEmpty(t, idx.clusters)

	total := 0
	for _, c := range idx.clusters {
		total += len(c.entries)
		firstGroup := c.entries[0].embedding[0] > 0.5
		for _, e := range c.entries {
			assert.Equal(t, firstGroup, e.embedding[0] > 0.5, "cluster mixes separated groups")
		}
	}
	assert.Equal(t, 40, total)
}

func TestBuildClusterIndexDeterministic(t *testing.T) {
	vecFn := func(i int) []float32 {
		return []float32{float32(i%7) * 0.1, float32(i%3) * 0.2, 1}
	}
	a := buildClusterIndex(makeEntries(50, vecFn))
	b := buildClusterIndex(makeEntries(50, vecFn))

	require.Equal(t, len(a.clusters), len(b.clusters))
	for i := range a.clusters {
		require.Equal(t, len(a.clusters[i].entries), len(b.clusters[i].entries))
		for j := range a.clusters[i].entries {
			assert.Equal(t, a.clusters[i].entries[j].chunkID, b.clusters[i].entries[j].chunkID)
		}
	}
}

func TestClusterIndexProbe(t *testing.T) {
	entries := make([]*memEntry, 0, 40)
	entries = append(entries, makeEntries(20, func(i int) []float32 {
		return []float32{1, float32(i) * 0.001, 0}
	})...)
	more := makeEntries(20, func(i int) []float32 {
		return []float32{0, float32(i) * 0.001, 1}
	})
	for i, e := range more {
		e.chunkID = fmt.Sprintf("d%d", i)
		entries = append(entries, e)
	}

	idx := buildClusterIndex(entries)

	// Probing a single cluster near the first group must return only
	// first-group entries.
	candidates := idx.probe([]float32{1, 0, 0}, 1)
	require.NotEmpty(t, candidates)
	for _, e := range candidates {
		assert.Greater(t, e.embedding[0], float32(0.5))
	}

	// Probing at least as many clusters as exist returns everything.
	all := idx.probe([]float32{1, 0, 0}, len(idx.clusters))
	assert.Len(t, all, 40)
}

func TestL2Distance(t *testing.T) {
	assert.InDelta(t, 0.0, l2Distance([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, 5.0, l2Distance([]float32{0, 0}, []float32{3, 4}), 1e-9)
}
