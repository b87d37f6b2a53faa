package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeChunk struct {
	Id        int64           `gorm:"primaryKey;autoIncrement"`
	Content   string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "gtw.knowledge_chunks"
}
