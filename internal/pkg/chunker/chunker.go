// Package chunker splits cleaned document text into bounded, overlapping
// chunks suitable for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/pkg/errors"
)

// Defaults for chunk sizing. Sizes are in Unicode characters.
const (
	DefaultMaxSize = 2000
	DefaultOverlap = 50

	// DefaultContextWindow is the number of characters of surrounding text
	// recorded on each chunk.
	DefaultContextWindow = 200
)

// DefaultSeparators is the split-point cascade, coarsest first. A chunk
// boundary is placed at the last occurrence of the highest-priority
// separator found inside the size window; when none matches, the chunk is
// hard-cut at the window edge.
var DefaultSeparators = []string{
	"\n## ",
	"\n### ",
	"\n\n",
	"\n",
	". ",
	"? ",
	"! ",
	" ",
}

// Config configures a Chunker.
type Config struct {
	// MaxSize is the maximum chunk size in Unicode characters.
	MaxSize int
	// Overlap is the number of characters shared between consecutive chunks.
	Overlap int
	// ContextWindow is the amount of surrounding text recorded on each chunk.
	ContextWindow int
	// Separators overrides the split-point cascade.
	Separators []string
}

// Chunker splits text deterministically: the same input always yields the
// same chunks.
type Chunker struct {
	maxSize       int
	overlap       int
	contextWindow int
	separators    []string
}

// New creates a Chunker. A nil config selects the defaults; overlap is
// clamped below the chunk size.
func New(cfg *Config) *Chunker {
	c := &Chunker{
		maxSize:       DefaultMaxSize,
		overlap:       DefaultOverlap,
		contextWindow: DefaultContextWindow,
		separators:    DefaultSeparators,
	}
	if cfg != nil {
		if cfg.MaxSize > 0 {
			c.maxSize = cfg.MaxSize
		}
		if cfg.Overlap >= 0 {
			c.overlap = cfg.Overlap
		}
		if cfg.ContextWindow > 0 {
			c.contextWindow = cfg.ContextWindow
		}
		if len(cfg.Separators) > 0 {
			c.separators = cfg.Separators
		}
	}
	if c.overlap >= c.maxSize {
		c.overlap = c.maxSize - 1
	}
	return c
}

// Split chunks the input text. Offsets are rune positions in the input;
// consecutive chunks overlap by at most the configured overlap, and the
// chunks jointly cover the whole input. Whitespace-only input is rejected.
func (c *Chunker) Split(text string) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrEmptyInput
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []model.Chunk
	start := 0
	for start < n {
		end := start + c.maxSize
		if end >= n {
			end = n
		} else if cut := c.findSplit(runes[start:end], c.overlap+1); cut > 0 {
			end = start + cut
		}
		// else: no separator in the window, hard cut at maxSize

		chunk := model.Chunk{
			Index:            len(chunks),
			Content:          string(runes[start:end]),
			Start:            start,
			End:              end,
			PrecedingContext: string(runes[maxInt(0, start-c.contextWindow):start]),
			FollowingContext: string(runes[end:minInt(n, end+c.contextWindow)]),
		}
		chunk.SectionTitle = sectionTitle(string(runes[:start]), chunk.Content)
		chunks = append(chunks, chunk)

		if end == n {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

// findSplit returns the rune offset of the best split point inside the
// window, or 0 when no separator yields one. Heading separators split after
// the newline so the heading line stays with the following chunk; all
// others split after the separator itself. Cuts inside the overlap region
// are rejected, otherwise the next chunk could not advance past this one.
func (c *Chunker) findSplit(window []rune, minCut int) int {
	s := string(window)
	for _, sep := range c.separators {
		idx := strings.LastIndex(s, sep)
		if idx <= 0 {
			continue
		}
		cut := utf8.RuneCountInString(s[:idx])
		if strings.HasPrefix(sep, "\n#") {
			cut++
		} else {
			cut += utf8.RuneCountInString(sep)
		}
		if cut >= minCut {
			return cut
		}
	}
	return 0
}

// sectionTitle finds the markdown heading governing a chunk: the chunk's own
// leading heading when it starts with one, otherwise the nearest heading
// line before the chunk.
func sectionTitle(prefix, content string) string {
	if line, _, found := strings.Cut(content, "\n"); found || line != "" {
		if title, ok := headingText(line); ok {
			return title
		}
	}

	lines := strings.Split(prefix, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if title, ok := headingText(lines[i]); ok {
			return title
		}
	}
	return ""
}

// headingText extracts the title from a markdown heading line.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	title := strings.TrimLeft(trimmed, "#")
	if title == "" || !strings.HasPrefix(title, " ") {
		return "", false
	}
	return strings.TrimSpace(title), true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
