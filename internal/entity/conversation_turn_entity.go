package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnMeta carries the structured metadata of an assistant turn: what the
// question was about and the SQL that produced the answer. User turns have
// no meta.
type TurnMeta struct {
	SQL      string            `json:"sql,omitempty"`
	Intent   string            `json:"intent,omitempty"`
	Entities []string          `json:"entities,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Schemas  []string          `json:"schemas,omitempty"`
}

type ConversationTurn struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	Role           string
	Content        string
	Meta           *TurnMeta
	CreatedAt      time.Time
}
