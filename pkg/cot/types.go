package cot

import "fleetquery-be/pkg/retrieval"

// Conversation roles as stored in memory and rendered into transcripts.
const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
)

// IntentSelect is the only query intent the pipeline produces today; the
// context agent falls back to it whenever analysis degrades.
const IntentSelect = "SELECT"

// Turn is one remembered conversation exchange. SQL and Filters carry the
// structured metadata of assistant turns so follow-up analysis can see what
// was actually executed, not just the narrated answer.
type Turn struct {
	Role    string
	Content string
	SQL     string
	Filters map[string]string
}

// Decision is the outcome of the schema selection step: which retrieved
// schema chunks the pipeline will reason over.
type Decision struct {
	SelectedChunks    []retrieval.Candidate
	FullSchemaContext []string
	NeedsUserChoice   bool
}

// QueryAnalysis is the structured verdict of the conversational context
// step. Field names follow the JSON contract the model is prompted to emit.
// Error is set when analysis degraded to the safe fallback; the pipeline
// still branches on the object normally.
type QueryAnalysis struct {
	Intent         string            `json:"intent,omitempty"`
	Entities       []string          `json:"entities,omitempty"`
	IsFollowUp     bool              `json:"isFollowUp"`
	RewrittenQuery string            `json:"rewrittenQuery"`
	Schema         string            `json:"schema,omitempty"`
	Table          string            `json:"table,omitempty"`
	FinalSQL       string            `json:"finalSql,omitempty"`
	Filters        map[string]string `json:"filters,omitempty"`
	Reasoning      string            `json:"reasoning,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// ValidationResult is the semantic validator's verdict on a generated
// statement. A statement only proceeds when IsValid is true.
type ValidationResult struct {
	IsValid    bool     `json:"is_valid"`
	Issues     []string `json:"issues"`
	Suggestion string   `json:"suggestion,omitempty"`
}
