package chunker_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iranzithierry/cognova-backend/internal/pkg/chunker"
	pkgerrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

func TestSplitEmptyInput(t *testing.T) {
	c := chunker.New(nil)

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"spaces only", "   "},
		{"whitespace mix", " \n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := c.Split(tt.input)
			assert.Nil(t, chunks)
			assert.True(t, errors.Is(err, pkgerrors.ErrEmptyInput))
		})
	}
}

func TestSplitShortInput(t *testing.T) {
	c := chunker.New(nil)

	chunks, err := c.Split("hello world")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 11, chunks[0].End)
	assert.Empty(t, chunks[0].PrecedingContext)
	assert.Empty(t, chunks[0].FollowingContext)
}

func TestSplitHardCuts(t *testing.T) {
	// No separators at all: the cascade falls through to hard cuts at the
	// size limit with exactly the configured overlap.
	c := chunker.New(nil)
	text := strings.Repeat("a", 4500)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 2000, chunks[0].End)
	assert.Equal(t, 1950, chunks[1].Start)
	assert.Equal(t, 3950, chunks[1].End)
	assert.Equal(t, 3900, chunks[2].Start)
	assert.Equal(t, 4500, chunks[2].End)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, ch.End-ch.Start, chunker.DefaultMaxSize)
		if i > 0 {
			assert.Greater(t, ch.Start, chunks[i-1].Start, "offsets must increase")
			assert.Equal(t, chunker.DefaultOverlap, chunks[i-1].End-ch.Start)
		}
	}
}

func TestSplitCoverage(t *testing.T) {
	c := chunker.New(nil)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	runes := []rune(text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].End)

	for i, ch := range chunks {
		assert.Equal(t, string(runes[ch.Start:ch.End]), ch.Content)
		if i > 0 {
			// No gaps: every rune is inside some chunk.
			assert.LessOrEqual(t, ch.Start, chunks[i-1].End)
			assert.LessOrEqual(t, chunks[i-1].End-ch.Start, chunker.DefaultOverlap)
		}
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	c := chunker.New(nil)
	text := strings.Repeat("a", 100) + "\n\n" + strings.Repeat("b", 2500)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 102, chunks[0].End)
	assert.True(t, strings.HasSuffix(chunks[0].Content, "\n\n"))
}

func TestSplitSectionTitles(t *testing.T) {
	c := chunker.New(&chunker.Config{MaxSize: 40, Overlap: 0})
	text := "## Setup\nInstall the tool. Run the tool. Enjoy it all."

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// First chunk starts with the heading, the rest inherit it via the
	// backward scan.
	for _, ch := range chunks {
		assert.Equal(t, "Setup", ch.SectionTitle)
	}

	assert.Equal(t, "## Setup\n", chunks[0].Content)
	assert.Equal(t, "Install the tool. Run the tool. ", chunks[1].Content)
	assert.Equal(t, "Enjoy it all.", chunks[2].Content)
}

func TestSplitContextWindows(t *testing.T) {
	c := chunker.New(nil)
	text := strings.Repeat("a", 4500)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Empty(t, chunks[0].PrecedingContext)
	assert.Equal(t, strings.Repeat("a", 200), chunks[0].FollowingContext)
	assert.Equal(t, strings.Repeat("a", 200), chunks[1].PrecedingContext)
	assert.Equal(t, strings.Repeat("a", 200), chunks[2].PrecedingContext)
	assert.Empty(t, chunks[2].FollowingContext)
}

func TestSplitCustomContextWindow(t *testing.T) {
	c := chunker.New(&chunker.Config{
		MaxSize:       100,
		Overlap:       0,
		ContextWindow: 10,
	})
	text := strings.Repeat("b", 250)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, strings.Repeat("b", 10), chunks[0].FollowingContext)
	assert.Equal(t, strings.Repeat("b", 10), chunks[1].PrecedingContext)
	assert.Equal(t, strings.Repeat("b", 10), chunks[2].PrecedingContext)
}

func TestSplitDeterministic(t *testing.T) {
	c := chunker.New(nil)
	text := strings.Repeat("Some sentence about retrieval. ", 300)

	first, err := c.Split(text)
	require.NoError(t, err)
	second, err := c.Split(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
