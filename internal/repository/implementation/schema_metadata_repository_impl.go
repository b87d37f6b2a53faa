package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fleetquery-be/internal/constant"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type SchemaMetadataRepositoryImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSchemaMetadataRepository(client *redis.Client, ttl time.Duration) contract.SchemaMetadataRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SchemaMetadataRepositoryImpl{client: client, ttl: ttl}
}

func (r *SchemaMetadataRepositoryImpl) Get(ctx context.Context, table string) (*entity.SchemaMetadata, error) {
	raw, err := r.client.Get(ctx, constant.SchemaMetadataKeyPrefix+table).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var meta entity.SchemaMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *SchemaMetadataRepositoryImpl) Set(ctx context.Context, meta *entity.SchemaMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, constant.SchemaMetadataKeyPrefix+meta.Table, raw, r.ttl).Err()
}
