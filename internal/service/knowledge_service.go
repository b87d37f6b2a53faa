package service

import (
	"context"
	"errors"
	"strings"

	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/pkg/utils"
)

// Oversized chunks are split before embedding so each stays inside the
// embedding model's context. Character-based, matching ingestion elsewhere.
const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

// IKnowledgeService manages the schema knowledge base: chunk ingestion and
// cached per-table metadata.
type IKnowledgeService interface {
	IngestChunks(ctx context.Context, contents []string) (int, error)
	ChunkCount(ctx context.Context) (int64, error)
	RegisterSchemaMetadata(ctx context.Context, meta *entity.SchemaMetadata) error
}

type knowledgeService struct {
	publisher  IPublisherService
	topicName  string
	chunkRepo  contract.KnowledgeChunkRepository
	schemaMeta contract.SchemaMetadataRepository
}

func NewKnowledgeService(
	publisher IPublisherService,
	topicName string,
	chunkRepo contract.KnowledgeChunkRepository,
	schemaMeta contract.SchemaMetadataRepository,
) IKnowledgeService {
	return &knowledgeService{
		publisher:  publisher,
		topicName:  topicName,
		chunkRepo:  chunkRepo,
		schemaMeta: schemaMeta,
	}
}

// IngestChunks queues each non-empty chunk for async embedding and returns
// how many were accepted.
func (s *knowledgeService) IngestChunks(ctx context.Context, contents []string) (int, error) {
	accepted := 0
	for _, content := range contents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		for _, piece := range utils.SplitText(content, ingestChunkSize, ingestChunkOverlap) {
			msg := dto.PublishKnowledgeChunkMessage{Content: piece}
			if err := s.publisher.Publish(s.topicName, msg); err != nil {
				return accepted, err
			}
			accepted++
		}
	}
	return accepted, nil
}

func (s *knowledgeService) ChunkCount(ctx context.Context) (int64, error) {
	return s.chunkRepo.Count(ctx)
}

func (s *knowledgeService) RegisterSchemaMetadata(ctx context.Context, meta *entity.SchemaMetadata) error {
	if meta == nil || strings.TrimSpace(meta.Table) == "" {
		return errors.New("schema metadata requires a table name")
	}
	return s.schemaMeta.Set(ctx, meta)
}
