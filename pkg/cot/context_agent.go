package cot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"fleetquery-be/pkg/llm"
)

// ContextWindow is how many recent turns are rendered into the transcript.
const ContextWindow = 5

// ContextAgent decides whether a new user message continues the previous
// exchange (refining an already-executed query) or starts a fresh one. It
// never fails the pipeline: any model or parsing problem degrades to a
// standalone-query analysis of the original text.
type ContextAgent struct {
	llm llm.LLMProvider
}

func NewContextAgent(provider llm.LLMProvider) *ContextAgent {
	return &ContextAgent{llm: provider}
}

// Analyze classifies the user query against recent conversation history.
func (a *ContextAgent) Analyze(ctx context.Context, query string, history []Turn) *QueryAnalysis {
	if len(history) == 0 {
		return fallbackAnalysis(query, "")
	}

	prompt := a.buildPrompt(query, history)
	raw, err := a.llm.Generate(ctx, prompt, llm.WithTemperature(0))
	if err != nil {
		log.Printf("[WARN] ContextAgent: analysis call failed, treating query as standalone: %v", err)
		return fallbackAnalysis(query, "analysis call failed: "+err.Error())
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		log.Printf("[WARN] ContextAgent: unparseable analysis, treating query as standalone: %v", err)
		return fallbackAnalysis(query, "unparseable analysis: "+err.Error())
	}
	if strings.TrimSpace(analysis.Intent) == "" {
		analysis.Intent = IntentSelect
	}
	if strings.TrimSpace(analysis.RewrittenQuery) == "" {
		analysis.RewrittenQuery = query
	}
	// A follow-up without a concrete statement to refine cannot skip
	// generation, so demote it to a standalone query.
	if analysis.IsFollowUp && strings.TrimSpace(analysis.FinalSQL) == "" {
		analysis.IsFollowUp = false
	}
	return analysis
}

// fallbackAnalysis is the safe degraded verdict: a standalone SELECT of the
// original text, with the failure reason recorded when there was one.
func fallbackAnalysis(query, reason string) *QueryAnalysis {
	return &QueryAnalysis{
		Intent:         IntentSelect,
		Entities:       []string{},
		IsFollowUp:     false,
		RewrittenQuery: query,
		Filters:        map[string]string{},
		Error:          reason,
	}
}

func (a *ContextAgent) buildPrompt(query string, history []Turn) string {
	return fmt.Sprintf(`You are a conversation analyst for a database question answering system.

Recent conversation:
%s
New user message: %s

Decide whether the new message is a FOLLOW-UP that refines the most recent
executed SQL (adding filters, changing limits, narrowing results) or a NEW
standalone question.

Respond with ONLY a JSON object, no other text:
{
  "intent": "SELECT",
  "entities": ["the tables, devices or concepts the message is about"],
  "isFollowUp": true or false,
  "rewrittenQuery": "the user intent as a fully self-contained question",
  "schema": "when isFollowUp is true, the schema reused from context, otherwise omit",
  "table": "when isFollowUp is true, the table reused from context, otherwise omit",
  "finalSql": "when isFollowUp is true, the previous SQL modified to satisfy the new message, otherwise omit",
  "filters": {"column": "value"} applied filters when relevant, otherwise omit,
  "reasoning": "one short sentence"
}`, renderTranscript(history), query)
}

// renderTranscript formats the last turns oldest-first, inlining executed
// SQL and applied filters into assistant lines so the model sees what the
// answer was actually built from.
func renderTranscript(history []Turn) string {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}

	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		if turn.SQL != "" {
			sb.WriteString(" [sql=")
			sb.WriteString(turn.SQL)
			sb.WriteString("]")
		}
		if len(turn.Filters) > 0 {
			keys := make([]string, 0, len(turn.Filters))
			for k := range turn.Filters {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			pairs := make([]string, 0, len(keys))
			for _, k := range keys {
				pairs = append(pairs, k+"="+turn.Filters[k])
			}
			sb.WriteString(" [filters=")
			sb.WriteString(strings.Join(pairs, ","))
			sb.WriteString("]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseAnalysis extracts the first JSON object from the model output and
// decodes it. Models sometimes wrap the object in prose or fences.
func parseAnalysis(raw string) (*QueryAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var analysis QueryAnalysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &analysis, nil
}
