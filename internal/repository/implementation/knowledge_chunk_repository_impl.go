package implementation

import (
	"context"

	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/mapper"
	"fleetquery-be/internal/model"
	"fleetquery-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeChunkMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeChunkMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.KnowledgeChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	models := make([]*model.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.KnowledgeChunk{}).Count(&count).Error
	return count, err
}

func (r *KnowledgeChunkRepositoryImpl) NearestByVector(ctx context.Context, vector []float32, topK int) ([]*contract.ScoredKnowledgeChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	// pgvector cosine distance: embedding <=> query_vector. Selecting the
	// distance alongside the row avoids recomputing it on the way out.
	type result struct {
		model.KnowledgeChunk
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	err := r.db.WithContext(ctx).
		Table("gtw.knowledge_chunks").
		Select("gtw.knowledge_chunks.*, embedding <=> ? as distance", queryVector).
		Order("distance ASC").
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKnowledgeChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredKnowledgeChunk{
			Chunk:    r.mapper.ToEntity(&res.KnowledgeChunk),
			Distance: res.Distance,
		}
	}
	return scored, nil
}
