package retrieval

// Candidate is a knowledge chunk annotated at query time with ranking
// scores. It lives only for the duration of one decision.
type Candidate struct {
	ID        int64
	Content   string
	Embedding []float32

	// Distance is the cosine distance reported by the vector search.
	Distance float64

	// Populated by the reranker.
	CosineSim   float64
	BM25Score   float64
	HybridScore float64
}
