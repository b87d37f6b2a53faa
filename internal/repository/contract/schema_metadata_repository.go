package contract

import (
	"context"

	"fleetquery-be/internal/entity"
)

type SchemaMetadataRepository interface {
	// Get returns nil without error when no metadata is cached for the
	// table.
	Get(ctx context.Context, table string) (*entity.SchemaMetadata, error)
	Set(ctx context.Context, meta *entity.SchemaMetadata) error
}
