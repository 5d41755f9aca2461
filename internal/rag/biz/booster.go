package biz

import (
	"math"
	"sort"

	"github.com/iranzithierry/cognova-backend/internal/model"
	"github.com/iranzithierry/cognova-backend/internal/pkg/textutil"
)

// DefaultMinTermLength is the minimum term length considered for importance
// scoring.
const DefaultMinTermLength = 3

// BoosterConfig configures the term-importance booster.
type BoosterConfig struct {
	// MinTermLength filters out terms shorter than this.
	MinTermLength int
}

// Booster reranks search results by the rarity of the query terms they
// contain. Terms appearing in few (or no) result documents carry more
// weight than terms found everywhere.
type Booster struct {
	minTermLength int
	stopwords     map[string]struct{}
}

// NewBooster creates a Booster instance.
func NewBooster(cfg *BoosterConfig) *Booster {
	minLen := DefaultMinTermLength
	if cfg != nil && cfg.MinTermLength > 0 {
		minLen = cfg.MinTermLength
	}
	return &Booster{
		minTermLength: minLen,
		stopwords:     englishStopwords,
	}
}

// Rerank orders results by descending term boost and drops results that
// match no query term. The boost of a result is the mean importance of the
// query terms present in it:
//
//	importance = 2.0                         when the term appears in no result
//	importance = 1 + ln(total/(1+docFreq))   otherwise
//
// Input order is preserved for equal boosts, so the incoming retrieval
// ranking acts as the tie-break. The input slice is not modified.
func (b *Booster) Rerank(query string, results []*model.SearchResult) []*model.SearchResult {
	if len(results) == 0 {
		return nil
	}

	queryTerms := uniqueTerms(textutil.Tokenize(query, b.minTermLength, b.stopwords))
	if len(queryTerms) == 0 {
		return nil
	}

	// Document frequency: in how many results each term appears.
	docTerms := make([]map[string]struct{}, len(results))
	docFreq := make(map[string]int)
	for i, r := range results {
		terms := make(map[string]struct{})
		for _, t := range textutil.Tokenize(r.Content, b.minTermLength, b.stopwords) {
			terms[t] = struct{}{}
		}
		docTerms[i] = terms
		for t := range terms {
			docFreq[t]++
		}
	}

	totalDocs := float64(len(results))
	importance := make(map[string]float64, len(queryTerms))
	for _, term := range queryTerms {
		df := docFreq[term]
		if df == 0 {
			// Absent from the corpus: possibly the most selective term of all.
			importance[term] = 2.0
		} else {
			importance[term] = 1 + math.Log(totalDocs/float64(1+df))
		}
	}

	boosted := make([]*model.SearchResult, 0, len(results))
	for i, r := range results {
		var sum float64
		matched := 0
		for _, term := range queryTerms {
			if _, ok := docTerms[i][term]; ok {
				sum += importance[term]
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		copied := *r
		copied.Boost = sum / float64(matched)
		boosted = append(boosted, &copied)
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Boost > boosted[j].Boost
	})
	return boosted
}

// uniqueTerms deduplicates tokens preserving first-seen order.
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
