// Package textutil provides text processing helpers shared by the retrieval
// and chat services.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	wordRegex      = regexp.MustCompile(`\w+`)
	lineSpaceRegex = regexp.MustCompile(`[ \t]+`)

	slashCompoundRegex = regexp.MustCompile(`(\w+)/(\w+)`)
	dashCompoundRegex  = regexp.MustCompile(`(\w+)-(\w+)`)
	ampCompoundRegex   = regexp.MustCompile(`(\w+)&(\w+)`)
)

// TruncateString truncates a string to at most maxLen Unicode characters.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// CleanForIndex prepares source text for chunking. Compound tokens joined by
// /, - or & gain a spaced variant so either form matches a query, and runs
// of spaces and tabs collapse to one space. Newlines are kept intact: the
// chunker's heading and paragraph separators depend on them.
func CleanForIndex(s string) string {
	s = slashCompoundRegex.ReplaceAllString(s, "$1/$2 ($1 $2)")
	s = dashCompoundRegex.ReplaceAllString(s, "$1-$2 ($1 $2)")
	s = ampCompoundRegex.ReplaceAllString(s, "$1-$2 ($1 $2)")
	s = lineSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize lowercases the text and extracts word tokens of at least minLen
// characters, excluding any token present in the stopwords set.
func Tokenize(text string, minLen int, stopwords map[string]struct{}) []string {
	var tokens []string
	for _, tok := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(tok) < minLen {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TermMatchScore returns the fraction of query terms present in the text,
// in [0, 1]. Used as the lexical leg of hybrid scoring.
func TermMatchScore(queryTerms []string, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	present := make(map[string]struct{})
	for _, tok := range wordRegex.FindAllString(lower, -1) {
		present[tok] = struct{}{}
	}

	matched := 0
	for _, term := range queryTerms {
		if _, ok := present[term]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}
