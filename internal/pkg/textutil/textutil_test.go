package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iranzithierry/cognova-backend/internal/pkg/textutil"
)

func TestCleanForIndex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello world", "hello world"},
		{"runs of spaces and tabs", "hello  \t world", "hello world"},
		{"slash compound expanded", "read the sign-up/login page", "read the sign-up (sign up)/login (up login) page"},
		{"dash compound expanded", "use dark-mode here", "use dark-mode (dark mode) here"},
		{"ampersand compound expanded", "terms&conditions apply", "terms-conditions (terms conditions) apply"},
		{"trims outer whitespace", "  hello \n", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.CleanForIndex(tt.input))
		})
	}
}

func TestCleanForIndexKeepsLineStructure(t *testing.T) {
	input := "# Guide\n\n## Install   \nRun the \t installer.\n\n## Configure\nEdit the config."
	got := textutil.CleanForIndex(input)

	// Heading and paragraph boundaries must survive cleaning; only runs of
	// spaces and tabs collapse.
	assert.Contains(t, got, "\n## Install")
	assert.Contains(t, got, "\n\n## Configure")
	assert.Contains(t, got, "Run the installer.")
	assert.NotContains(t, got, "\t")
}

func TestTokenize(t *testing.T) {
	stopwords := map[string]struct{}{"the": {}, "and": {}}

	tests := []struct {
		name     string
		input    string
		minLen   int
		expected []string
	}{
		{
			name:     "lowercases and filters short tokens",
			input:    "The Red Shoes on my feet",
			minLen:   3,
			expected: []string{"red", "shoes", "feet"},
		},
		{
			name:     "stopwords excluded",
			input:    "the cat and the hat",
			minLen:   3,
			expected: []string{"cat", "hat"},
		},
		{
			name:     "no qualifying tokens",
			input:    "a b cd",
			minLen:   3,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.Tokenize(tt.input, tt.minLen, stopwords))
		})
	}
}

func TestTermMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		terms    []string
		text     string
		expected float64
	}{
		{"all terms match", []string{"red", "shoes"}, "Red shoes in stock", 1.0},
		{"half the terms match", []string{"red", "boots"}, "Red shoes in stock", 0.5},
		{"no terms match", []string{"green"}, "Red shoes in stock", 0.0},
		{"no query terms", nil, "anything", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, textutil.TermMatchScore(tt.terms, tt.text), 0.0001)
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", textutil.TruncateString("hello", 10))
	assert.Equal(t, "hel", textutil.TruncateString("hello", 3))
	assert.Equal(t, "héll", textutil.TruncateString("héllo", 4))
}
