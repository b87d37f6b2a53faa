package entity

import "time"

// KnowledgeChunk is one embedded slice of schema documentation: a table
// description with its columns, types and relationships.
type KnowledgeChunk struct {
	Id        int64
	Content   string
	Embedding []float32
	CreatedAt time.Time
}
