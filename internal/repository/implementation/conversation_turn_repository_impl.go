package implementation

import (
	"context"

	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/mapper"
	"fleetquery-be/internal/model"
	"fleetquery-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationTurnMapper
}

func NewConversationTurnRepository(db *gorm.DB) contract.ConversationTurnRepository {
	return &ConversationTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationTurnMapper(),
	}
}

func (r *ConversationTurnRepositoryImpl) Append(ctx context.Context, turn *entity.ConversationTurn) error {
	m := r.mapper.ToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationTurnRepositoryImpl) Recent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}

	var models []*model.ConversationTurn
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	// Fetched newest-first for the LIMIT, returned oldest-first for
	// transcript building.
	turns := make([]*entity.ConversationTurn, len(models))
	for i, m := range models {
		turns[len(models)-1-i] = r.mapper.ToEntity(m)
	}
	return turns, nil
}
