package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runScanner feeds tokens and collects emitted text and completed calls.
func runScanner(tokens []string) (text string, calls []string, unterminated bool) {
	s := newMarkerScanner()
	for _, tok := range tokens {
		emit, call, ok := s.feed(tok)
		text += emit
		if ok {
			calls = append(calls, call)
		}
	}
	text += s.flush()
	return text, calls, s.unterminated()
}

func TestMarkerScanner_PlainText(t *testing.T) {
	text, calls, unterminated := runScanner([]string{"Hello", ", ", "world!"})
	assert.Equal(t, "Hello, world!", text)
	assert.Empty(t, calls)
	assert.False(t, unterminated)
}

func TestMarkerScanner_CallInOneToken(t *testing.T) {
	text, calls, _ := runScanner([]string{
		`Let me check. <tool_call>{"name":"search"}</tool_call>`,
	})
	assert.Equal(t, "Let me check. ", text)
	require.Len(t, calls, 1)
	assert.Equal(t, `{"name":"search"}`, calls[0])
}

func TestMarkerScanner_MarkerSplitAcrossTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
	}{
		{
			name:   "open marker split mid-word",
			tokens: []string{"before <to", "ol_call>{\"name\":\"search\"}</tool_call>"},
		},
		{
			name:   "open marker one byte at a time",
			tokens: []string{"before ", "<", "t", "o", "o", "l", "_", "c", "a", "l", "l", ">", `{"name":"search"}`, "</tool_call>"},
		},
		{
			name:   "close marker split",
			tokens: []string{`before <tool_call>{"name":"search"}</tool`, "_call>"},
		},
		{
			name:   "payload split",
			tokens: []string{`before <tool_call>{"name":`, `"search"}`, `</tool_call>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, calls, unterminated := runScanner(tt.tokens)
			assert.Equal(t, "before ", text)
			require.Len(t, calls, 1)
			assert.Equal(t, `{"name":"search"}`, calls[0])
			assert.False(t, unterminated)
		})
	}
}

func TestMarkerScanner_PartialPrefixIsTextAfterAll(t *testing.T) {
	// "<tool" at end of stream never became a marker.
	text, calls, unterminated := runScanner([]string{"price is x ", "<tool"})
	assert.Equal(t, "price is x <tool", text)
	assert.Empty(t, calls)
	assert.False(t, unterminated)
}

func TestMarkerScanner_AngleBracketInProse(t *testing.T) {
	text, calls, _ := runScanner([]string{"use a<b ", "<then> done"})
	assert.Equal(t, "use a<b <then> done", text)
	assert.Empty(t, calls)
}

func TestMarkerScanner_UnterminatedCall(t *testing.T) {
	text, calls, unterminated := runScanner([]string{`sure <tool_call>{"name":`})
	assert.Equal(t, "sure ", text)
	assert.Empty(t, calls)
	assert.True(t, unterminated)
}

func TestMarkerScanner_TextHeldDuringCollecting(t *testing.T) {
	// Nothing from inside the markers leaks into emitted text.
	s := newMarkerScanner()
	emit, _, ok := s.feed("a <tool_call>{")
	assert.Equal(t, "a ", emit)
	assert.False(t, ok)

	emit, _, ok = s.feed(`"name":"search"}`)
	assert.Empty(t, emit)
	assert.False(t, ok)

	emit, call, ok := s.feed("</tool_call>")
	assert.Empty(t, emit)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"search"}`, call)
}

func TestPartialMarkerSuffix(t *testing.T) {
	assert.Equal(t, 0, partialMarkerSuffix("hello", toolCallOpen))
	assert.Equal(t, 1, partialMarkerSuffix("hello <", toolCallOpen))
	assert.Equal(t, 5, partialMarkerSuffix("x <tool", toolCallOpen))
	assert.Equal(t, 10, partialMarkerSuffix("<tool_call", toolCallOpen))
	// A complete marker is not a partial one.
	assert.Equal(t, 0, partialMarkerSuffix("<tool_call>", toolCallOpen))
}
