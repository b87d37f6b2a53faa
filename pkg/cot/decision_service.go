package cot

import (
	"context"
	"log"

	"fleetquery-be/pkg/embedding"
	"fleetquery-be/pkg/retrieval"
)

// Retrieval defaults: topK candidates from the vector search, topN chunks
// kept after hybrid reranking.
const (
	DefaultTopK = 5
	DefaultTopN = 2
)

// ChunkRetriever performs the nearest-neighbour search over stored schema
// chunks.
type ChunkRetriever interface {
	NearestByVector(ctx context.Context, vector []float32, topK int) ([]retrieval.Candidate, error)
}

// DecisionService selects the schema chunks the rest of the pipeline will
// reason over: embed the query, retrieve nearest chunks, rerank, keep the
// top results. It always commits to its own selection rather than asking
// the user to choose between candidate schemas.
type DecisionService struct {
	embedder  embedding.Provider
	retriever ChunkRetriever
	reranker  *retrieval.Reranker
	topK      int
	topN      int
}

func NewDecisionService(embedder embedding.Provider, retriever ChunkRetriever, reranker *retrieval.Reranker) *DecisionService {
	return &DecisionService{
		embedder:  embedder,
		retriever: retriever,
		reranker:  reranker,
		topK:      DefaultTopK,
		topN:      DefaultTopN,
	}
}

// Decide runs the retrieval and reranking steps for one query.
func (s *DecisionService) Decide(ctx context.Context, query string) (*Decision, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vector) == 0 {
		return nil, &EmbeddingError{}
	}

	candidates, err := s.retriever.NearestByVector(ctx, vector, s.topK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		log.Printf("[WARN] DecisionService: vector search returned no candidates")
		return nil, ErrNoSchemaMatch
	}

	selected := s.reranker.Rerank(candidates, vector, query, s.topN)

	schemaContext := make([]string, len(selected))
	for i, c := range selected {
		schemaContext[i] = c.Content
	}

	return &Decision{
		SelectedChunks:    selected,
		FullSchemaContext: schemaContext,
		NeedsUserChoice:   false,
	}, nil
}
