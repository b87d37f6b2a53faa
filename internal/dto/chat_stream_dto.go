package dto

// Stream event types, in the order a successful database exchange emits
// them: analysis, schema_selected, sql_generated, response_chunk*, complete.
const (
	StreamEventResponseChunk       = "response_chunk"
	StreamEventAnalysis            = "analysis"
	StreamEventSchemaSelected      = "schema_selected"
	StreamEventSQLGenerated        = "sql_generated"
	StreamEventSQLValidationFailed = "sql_validation_failed"
	StreamEventComplete            = "complete"
	StreamEventError               = "error"
)

type ChatStreamRequest struct {
	Text           string `json:"text" validate:"required"`
	ConversationId string `json:"conversation_id,omitempty"`
}

// StreamEvent is the envelope written to the SSE stream, one per data:
// line. Timestamp is unix milliseconds.
type StreamEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type AnalysisData struct {
	Intent         string   `json:"intent"`
	Entities       []string `json:"entities"`
	IsFollowUp     bool     `json:"isFollowUp"`
	RewrittenQuery string   `json:"rewrittenQuery"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

type SelectedSchemaDTO struct {
	Table       string   `json:"table"`
	Columns     []string `json:"columns,omitempty"`
	HybridScore float64  `json:"hybrid_score"`
}

type SchemaSelectedData struct {
	Schemas []SelectedSchemaDTO `json:"schemas"`
}

type SQLGeneratedData struct {
	SQL string `json:"sqlQuery"`
}

type SQLValidationFailedData struct {
	SQLQuery   string   `json:"sqlQuery"`
	Issues     []string `json:"issues"`
	Suggestion string   `json:"suggestion,omitempty"`
}

type CompleteData struct {
	ConversationId string `json:"conversation_id"`
	TraceId        string `json:"trace_id"`
	SQLQuery       string `json:"sqlQuery,omitempty"`
	RowCount       int    `json:"row_count"`
	TotalTimeMs    int64  `json:"total_time_ms"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// PublishKnowledgeChunkMessage is the async ingestion payload: one schema
// documentation chunk to embed and store.
type PublishKnowledgeChunkMessage struct {
	Content string `json:"content"`
}

type ConversationTurnDTO struct {
	Id        string            `json:"id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	SQL       string            `json:"sql,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	CreatedAt int64             `json:"created_at"`
}
