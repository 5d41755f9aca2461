package biz

// englishStopwords are excluded from term-importance scoring. Matching them
// would reward filler words over the terms that actually narrow a query.
var englishStopwords = map[string]struct{}{}

func init() {
	words := []string{
		"about", "above", "after", "again", "against", "all", "and", "any",
		"are", "because", "been", "before", "being", "below", "between",
		"both", "but", "can", "cannot", "could", "did", "does", "doing",
		"down", "during", "each", "few", "for", "from", "further", "had",
		"has", "have", "having", "her", "here", "hers", "herself", "him",
		"himself", "his", "how", "into", "its", "itself", "just", "more",
		"most", "myself", "nor", "not", "now", "off", "once", "only", "other",
		"our", "ours", "ourselves", "out", "over", "own", "same", "she",
		"should", "some", "such", "than", "that", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this",
		"those", "through", "too", "under", "until", "very", "was", "were",
		"what", "when", "where", "which", "while", "who", "whom", "why",
		"will", "with", "would", "you", "your", "yours", "yourself",
		"yourselves",
	}
	for _, w := range words {
		englishStopwords[w] = struct{}{}
	}
}
