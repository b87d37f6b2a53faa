package retrieval

import (
	"math"
	"strings"
	"unicode"
)

// BM25 parameters (standard Okapi defaults)
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// tokenize lower-cases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// bm25Scores computes an Okapi BM25 relevance score for each document
// against the query terms. Corpus statistics (document frequency, average
// length) are taken over the given documents only; the reranker never
// expands beyond the retrieved candidate set. Raw scores are squashed to
// [0, 1) with s/(1+s) so they combine cleanly with cosine similarity.
func bm25Scores(queryText string, docs []string) []float64 {
	scores := make([]float64, len(docs))
	queryTerms := tokenize(queryText)
	if len(queryTerms) == 0 || len(docs) == 0 {
		return scores
	}

	docTerms := make([]map[string]int, len(docs))
	docLens := make([]int, len(docs))
	var totalLen int
	for i, doc := range docs {
		terms := tokenize(doc)
		freq := make(map[string]int, len(terms))
		for _, t := range terms {
			freq[t]++
		}
		docTerms[i] = freq
		docLens[i] = len(terms)
		totalLen += len(terms)
	}
	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		return scores
	}

	// Document frequency per unique query term. Terms are kept in
	// first-appearance order so float summation stays reproducible.
	var uniqueTerms []string
	df := make(map[string]int, len(queryTerms))
	for _, term := range queryTerms {
		if _, seen := df[term]; seen {
			continue
		}
		count := 0
		for _, freq := range docTerms {
			if freq[term] > 0 {
				count++
			}
		}
		df[term] = count
		uniqueTerms = append(uniqueTerms, term)
	}

	n := float64(len(docs))
	for i := range docs {
		var score float64
		for _, term := range uniqueTerms {
			termDF := df[term]
			tf := float64(docTerms[i][term])
			if tf == 0 || termDF == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(termDF)+0.5)/(float64(termDF)+0.5))
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(docLens[i])/avgLen))
			score += idf * norm
		}
		scores[i] = score / (1 + score)
	}

	return scores
}
