package contract

import (
	"context"

	"fleetquery-be/internal/entity"

	"github.com/google/uuid"
)

type ConversationTurnRepository interface {
	Append(ctx context.Context, turn *entity.ConversationTurn) error
	// Recent returns up to limit most recent turns of the conversation,
	// oldest first.
	Recent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.ConversationTurn, error)
}
