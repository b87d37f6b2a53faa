package dto

type IngestChunksRequest struct {
	Chunks []string `json:"chunks" validate:"required,min=1"`
}

type IngestChunksResponse struct {
	Accepted int `json:"accepted"`
}

type RegisterSchemaMetadataRequest struct {
	Table       string   `json:"table" validate:"required"`
	Columns     []string `json:"columns" validate:"required,min=1"`
	Description string   `json:"description,omitempty"`
}

type KnowledgeStatsResponse struct {
	ChunkCount int64 `json:"chunk_count"`
}
