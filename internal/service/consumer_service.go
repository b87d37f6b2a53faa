package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService embeds schema documentation chunks off the request path
// and stores them for retrieval.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.KnowledgeChunkRepository
	embeddingProvider embedding.Provider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.KnowledgeChunkRepository,
	embeddingProvider embedding.Provider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishKnowledgeChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal knowledge chunk message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	content := strings.TrimSpace(payload.Content)
	if content == "" {
		log.Printf("[WARN] Skipping empty knowledge chunk")
		msg.Ack()
		return
	}

	vector, err := cs.embeddingProvider.Embed(ctx, content)
	if err != nil {
		log.Printf("[ERROR] Failed to embed knowledge chunk: %v", err)
		msg.Nack() // Nack for retriable errors
		return
	}

	chunk := &entity.KnowledgeChunk{
		Content:   content,
		Embedding: vector,
		CreatedAt: time.Now(),
	}
	if err := cs.chunkRepo.Create(ctx, chunk); err != nil {
		log.Printf("[ERROR] Failed to store knowledge chunk: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Stored knowledge chunk %d (%d chars)", chunk.Id, len(content))
	msg.Ack()
}
