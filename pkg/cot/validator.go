package cot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"fleetquery-be/pkg/llm"
)

// Validator performs a semantic review of a generated statement against the
// user question and the schema it was built from: wrong joins, misused
// columns, filters that contradict the question. It is fail-closed: if the
// model cannot be reached or its verdict cannot be parsed, the statement is
// treated as invalid.
type Validator struct {
	llm llm.LLMProvider
}

func NewValidator(provider llm.LLMProvider) *Validator {
	return &Validator{llm: provider}
}

// Validate reviews sql against the question and schema context.
func (v *Validator) Validate(ctx context.Context, userQuery, sql string, schemaContext []string) *ValidationResult {
	prompt := v.buildPrompt(userQuery, sql, schemaContext)
	raw, err := v.llm.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		log.Printf("[WARN] Validator: validation call failed, rejecting statement: %v", err)
		return failClosed("validator unavailable, statement rejected as a precaution")
	}

	result, err := parseValidation(raw)
	if err != nil {
		log.Printf("[WARN] Validator: unparseable verdict, rejecting statement: %v", err)
		return failClosed("validator verdict could not be parsed, statement rejected as a precaution")
	}
	return result
}

func (v *Validator) buildPrompt(userQuery, sql string, schemaContext []string) string {
	return fmt.Sprintf(`You are a PostgreSQL reviewer. Check whether the SQL correctly answers the question given the schema.

Schema context:
%s

Question: %s

SQL:
%s

Check for: tables or columns not present in the schema, joins on wrong keys,
filters that contradict the question, aggregates that answer a different
question.

Respond with ONLY a JSON object, no other text:
{
  "is_valid": true or false,
  "issues": ["each concrete problem found, empty when valid"],
  "suggestion": "a corrected statement when one is obvious, otherwise omit"
}`, strings.Join(schemaContext, "\n\n"), userQuery, sql)
}

func parseValidation(raw string) (*ValidationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result ValidationResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	return &result, nil
}

func failClosed(issue string) *ValidationResult {
	return &ValidationResult{IsValid: false, Issues: []string{issue}}
}
