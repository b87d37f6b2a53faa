package cot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptsValidVerdict(t *testing.T) {
	fake := &fakeLLM{response: `{"is_valid": true, "issues": []}`}
	v := NewValidator(fake)

	result := v.Validate(context.Background(), "count ecus", "SELECT count(*) FROM gtw.ecu", []string{"Table: gtw.ecu"})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
	assert.Contains(t, fake.lastPrompt, "count ecus")
	assert.Contains(t, fake.lastPrompt, "SELECT count(*) FROM gtw.ecu")
	assert.Contains(t, fake.lastPrompt, "Table: gtw.ecu")
}

func TestValidateReportsIssuesWithSuggestion(t *testing.T) {
	fake := &fakeLLM{response: `{"is_valid": false, "issues": ["column fleet_name does not exist in gtw.ecu"], "suggestion": "SELECT e.serial FROM gtw.ecu e JOIN gtw.fleet f ON f.id = e.fleet_id"}`}
	v := NewValidator(fake)

	result := v.Validate(context.Background(), "ecus per fleet", "SELECT fleet_name FROM gtw.ecu", []string{"Table: gtw.ecu"})

	assert.False(t, result.IsValid)
	assert.Len(t, result.Issues, 1)
	assert.NotEmpty(t, result.Suggestion)
}

func TestValidateFailsClosedOnModelError(t *testing.T) {
	v := NewValidator(&fakeLLM{err: errors.New("connection reset")})

	result := v.Validate(context.Background(), "q", "SELECT 1", []string{"ctx"})

	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Issues)
}

func TestValidateFailsClosedOnGarbageVerdict(t *testing.T) {
	v := NewValidator(&fakeLLM{response: "looks fine to me!"})

	result := v.Validate(context.Background(), "q", "SELECT 1", []string{"ctx"})

	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Issues)
}

func TestValidateParsesVerdictWrappedInProse(t *testing.T) {
	v := NewValidator(&fakeLLM{response: "Here is my verdict:\n{\"is_valid\": true, \"issues\": []}\nDone."})

	result := v.Validate(context.Background(), "q", "SELECT 1", []string{"ctx"})

	assert.True(t, result.IsValid)
}
