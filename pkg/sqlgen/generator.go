package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"fleetquery-be/pkg/llm"
)

// maxSchemaContextChars bounds the prompt size when many chunks are selected.
const maxSchemaContextChars = 20000

// Generator turns a natural-language question plus selected schema chunks
// into a single PostgreSQL SELECT statement. Every candidate statement is
// sanitized and passed through the read-only guardrail before it is
// returned; the model output is never trusted directly.
type Generator struct {
	llm llm.LLMProvider
}

func NewGenerator(provider llm.LLMProvider) *Generator {
	return &Generator{llm: provider}
}

// Generate produces a guarded, read-only SQL statement.
func (g *Generator) Generate(ctx context.Context, userQuery string, schemaContext []string) (string, error) {
	if strings.TrimSpace(userQuery) == "" {
		return "", &GenerationError{Reason: "user query must not be empty"}
	}
	if len(schemaContext) == 0 {
		return "", &GenerationError{Reason: "schema context must not be empty"}
	}

	prompt := buildPrompt(userQuery, schemaContext)
	raw, err := g.llm.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		return "", &GenerationError{Reason: "completion call failed", Err: err}
	}

	sql := Sanitize(raw)
	if sql == "" {
		return "", &GenerationError{Reason: "model returned an empty statement"}
	}
	if !IsReadOnly(sql) {
		return "", &ReadOnlyViolationError{SQL: sql}
	}
	return sql, nil
}

func buildPrompt(userQuery string, schemaContext []string) string {
	var sb strings.Builder
	for i, chunk := range schemaContext {
		block := fmt.Sprintf("-- Chunk %d --\n%s\n\n", i+1, chunk)
		if sb.Len()+len(block) > maxSchemaContextChars {
			break
		}
		sb.WriteString(block)
	}

	return fmt.Sprintf(`You are an expert PostgreSQL query writer for a fleet device management database.

Database schema context:
%s
User question: %s

Rules:
1. Generate exactly ONE SQL statement and nothing else. No explanation, no markdown.
2. The statement MUST be read-only: SELECT or WITH only. Never write, modify or define anything.
3. Use only tables and columns that appear in the schema context above. Do not invent names.
4. Always schema-qualify table names (for example gtw.ecu, bs.bs_device).
5. Add LIMIT 100 to the statement unless the question asks for an aggregate (COUNT, SUM, AVG, MIN, MAX) or already implies a single row. If the user explicitly asks for all rows or no limit, use LIMIT 1000 instead; never leave the statement unbounded.
6. Prefer explicit JOIN conditions over implicit joins.
7. For date filters use ISO formats and PostgreSQL interval arithmetic.

SQL:`, sb.String(), userQuery)
}
