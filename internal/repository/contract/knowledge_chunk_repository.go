package contract

import (
	"context"

	"fleetquery-be/internal/entity"
)

// ScoredKnowledgeChunk wraps KnowledgeChunk with its cosine distance to the
// query vector (0.0 = identical direction).
type ScoredKnowledgeChunk struct {
	Chunk    *entity.KnowledgeChunk
	Distance float64
}

type KnowledgeChunkRepository interface {
	Create(ctx context.Context, chunk *entity.KnowledgeChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error
	Count(ctx context.Context) (int64, error)
	// NearestByVector returns the topK chunks closest to the query vector
	// by cosine distance, nearest first.
	NearestByVector(ctx context.Context, vector []float32, topK int) ([]*ScoredKnowledgeChunk, error)
}
