package events

import "time"

const QueryExecutedType = "query.executed"

// NewQueryExecutedEvent records one executed read-only statement for the
// audit trail.
func NewQueryExecutedEvent(conversationId, traceId, sql string, rowCount int, durationMs int64) Event {
	return BaseEvent{
		Type: QueryExecutedType,
		Data: map[string]interface{}{
			"conversation_id": conversationId,
			"trace_id":        traceId,
			"sql":             sql,
			"row_count":       rowCount,
			"duration_ms":     durationMs,
		},
		OccurredAt: time.Now(),
	}
}
