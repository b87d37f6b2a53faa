package bootstrap

import (
	"context"

	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/pkg/retrieval"
)

// chunkRetriever adapts the stored-chunk repository to the candidate shape
// the reranking pipeline works with.
type chunkRetriever struct {
	repo contract.KnowledgeChunkRepository
}

func newChunkRetriever(repo contract.KnowledgeChunkRepository) *chunkRetriever {
	return &chunkRetriever{repo: repo}
}

func (r *chunkRetriever) NearestByVector(ctx context.Context, vector []float32, topK int) ([]retrieval.Candidate, error) {
	scored, err := r.repo.NearestByVector(ctx, vector, topK)
	if err != nil {
		return nil, err
	}

	candidates := make([]retrieval.Candidate, len(scored))
	for i, s := range scored {
		candidates[i] = retrieval.Candidate{
			ID:        s.Chunk.Id,
			Content:   s.Chunk.Content,
			Embedding: s.Chunk.Embedding,
			Distance:  s.Distance,
		}
	}
	return candidates, nil
}
