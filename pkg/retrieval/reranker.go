package retrieval

import (
	"log"
	"math"
	"sort"
)

// Hybrid score weights: semantic similarity dominates, lexical relevance
// breaks topical ambiguity.
const (
	weightSemantic = 0.6
	weightLexical  = 0.4
)

// HybridScore combines a cosine distance and a BM25 rank into the final
// reranking score: 0.6 * (1 - cosineDistance) + 0.4 * bm25.
func HybridScore(cosineDistance, bm25 float64) float64 {
	return weightSemantic*(1-cosineDistance) + weightLexical*bm25
}

// Reranker performs post-retrieval reranking of vector-search candidates
// using a hybrid BM25 + embedding scoring approach.
type Reranker struct{}

func NewReranker() *Reranker {
	return &Reranker{}
}

// Rerank recomputes a hybrid score for each candidate already in the
// retrieved set (never expanding beyond it), sorts descending by hybrid
// score and truncates to topN. Ties keep the original vector-distance
// order. Given identical inputs the result is identical, with no randomness.
func (r *Reranker) Rerank(candidates []Candidate, queryVec []float32, queryText string, topN int) []Candidate {
	if len(candidates) == 0 {
		log.Printf("[WARN] Reranker: no candidates available, returning empty list")
		return []Candidate{}
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Content
	}
	lexical := bm25Scores(queryText, docs)

	reranked := make([]Candidate, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		reranked[i].CosineSim = cosineSimilarity(queryVec, reranked[i].Embedding, reranked[i].Distance)
		reranked[i].BM25Score = lexical[i]
		reranked[i].HybridScore = HybridScore(1-reranked[i].CosineSim, reranked[i].BM25Score)
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].HybridScore > reranked[j].HybridScore
	})

	if topN > 0 && len(reranked) > topN {
		reranked = reranked[:topN]
	}
	return reranked
}

// cosineSimilarity recomputes similarity from the vectors when both are
// present; otherwise it falls back to 1 - storedDistance from the vector
// search.
func cosineSimilarity(a, b []float32, storedDistance float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1 - storedDistance
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1 - storedDistance
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
