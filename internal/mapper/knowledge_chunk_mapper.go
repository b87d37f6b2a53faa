package mapper

import (
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeChunkMapper struct{}

func NewKnowledgeChunkMapper() *KnowledgeChunkMapper {
	return &KnowledgeChunkMapper{}
}

func (m *KnowledgeChunkMapper) ToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}

	return &entity.KnowledgeChunk{
		Id:        c.Id,
		Content:   c.Content,
		Embedding: c.Embedding.Slice(),
		CreatedAt: c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToModel(c *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if c == nil {
		return nil
	}

	return &model.KnowledgeChunk{
		Id:        c.Id,
		Content:   c.Content,
		Embedding: pgvector.NewVector(c.Embedding),
		CreatedAt: c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToEntities(chunks []*model.KnowledgeChunk) []*entity.KnowledgeChunk {
	entities := make([]*entity.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
