package mapper

import (
	"encoding/json"

	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/model"

	"gorm.io/datatypes"
)

type ConversationTurnMapper struct{}

func NewConversationTurnMapper() *ConversationTurnMapper {
	return &ConversationTurnMapper{}
}

func (m *ConversationTurnMapper) ToEntity(t *model.ConversationTurn) *entity.ConversationTurn {
	if t == nil {
		return nil
	}

	var meta *entity.TurnMeta
	if len(t.Meta) > 0 {
		var decoded entity.TurnMeta
		// Meta written by us is always valid JSON; anything unreadable is
		// dropped rather than failing the whole history load.
		if err := json.Unmarshal(t.Meta, &decoded); err == nil {
			meta = &decoded
		}
	}

	return &entity.ConversationTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		Role:           t.Role,
		Content:        t.Content,
		Meta:           meta,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToModel(t *entity.ConversationTurn) *model.ConversationTurn {
	if t == nil {
		return nil
	}

	var meta datatypes.JSON
	if t.Meta != nil {
		if raw, err := json.Marshal(t.Meta); err == nil {
			meta = raw
		}
	}

	return &model.ConversationTurn{
		Id:             t.Id,
		ConversationId: t.ConversationId,
		Role:           t.Role,
		Content:        t.Content,
		Meta:           meta,
		CreatedAt:      t.CreatedAt,
	}
}

func (m *ConversationTurnMapper) ToEntities(turns []*model.ConversationTurn) []*entity.ConversationTurn {
	entities := make([]*entity.ConversationTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.ToEntity(t)
	}
	return entities
}
