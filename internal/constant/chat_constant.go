package constant

const (
	ConversationRoleUser      = "USER"
	ConversationRoleAssistant = "ASSISTANT"

	// DatabaseDirectivePrefix forces the database pipeline even when the
	// message would otherwise be treated as general chat.
	DatabaseDirectivePrefix = "/db"

	DefaultRetrievalTopK  = 5
	DefaultContextWindow  = 5
	DefaultResultRowLimit = 100

	// Redis key prefix for denormalized schema metadata, e.g.
	// t2sql:schema:gtw.ecu
	SchemaMetadataKeyPrefix = "t2sql:schema:"
)
