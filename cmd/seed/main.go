package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"fleetquery-be/internal/config"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/implementation"
	"fleetquery-be/pkg/database"
	"fleetquery-be/pkg/embedding"
	"fleetquery-be/pkg/utils"
)

// Seeds the knowledge base from a schema documentation file. Chunks are
// separated by blank lines; oversized chunks are split further before
// embedding.
func main() {
	cfg := config.Load()

	path := "schema_docs.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error: failed to read %s: %v", path, err)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Error: failed to connect to database: %v", err)
	}

	gemini := embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	ollama := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	gateway := embedding.NewFailover(gemini, ollama)

	repo := implementation.NewKnowledgeChunkRepository(db)
	ctx := context.Background()

	var chunks []*entity.KnowledgeChunk
	for _, block := range strings.Split(string(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		for _, piece := range utils.SplitText(block, 1500, 200) {
			vector, err := gateway.Embed(ctx, piece)
			if err != nil {
				log.Fatalf("Error: failed to embed chunk: %v", err)
			}
			chunks = append(chunks, &entity.KnowledgeChunk{
				Content:   piece,
				Embedding: vector,
				CreatedAt: time.Now(),
			})
		}
	}

	if len(chunks) == 0 {
		log.Fatal("Error: no chunks found in input file")
	}

	if err := repo.CreateBulk(ctx, chunks); err != nil {
		log.Fatalf("Error: failed to store chunks: %v", err)
	}

	log.Printf("Success: seeded %d knowledge chunks from %s", len(chunks), path)
}
