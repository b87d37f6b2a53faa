package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fleetquery-be/internal/constant"
	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/internal/repository/memory"
	"fleetquery-be/pkg/cot"
	"fleetquery-be/pkg/events"
	"fleetquery-be/pkg/llm"
	"fleetquery-be/pkg/sqlgen"

	"github.com/google/uuid"
)

// maxNarratedResultChars caps how much result JSON is handed to the model
// when narrating.
const maxNarratedResultChars = 8000

// EventEmitter delivers one stream event to the client. Returning an error
// aborts the pipeline (client gone).
type EventEmitter func(event *dto.StreamEvent) error

// Pipeline step contracts, narrowed so tests can substitute fakes.

type ContextAnalyzer interface {
	Analyze(ctx context.Context, query string, history []cot.Turn) *cot.QueryAnalysis
}

type DecisionMaker interface {
	Decide(ctx context.Context, query string) (*cot.Decision, error)
}

type SQLGenerator interface {
	Generate(ctx context.Context, userQuery string, schemaContext []string) (string, error)
}

type SQLValidator interface {
	Validate(ctx context.Context, userQuery, sql string, schemaContext []string) *cot.ValidationResult
}

type AuditPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IChatService interface {
	StreamChat(ctx context.Context, request *dto.ChatStreamRequest, emit EventEmitter) error
	History(ctx context.Context, conversationId uuid.UUID, limit int) ([]dto.ConversationTurnDTO, error)
}

type chatService struct {
	analyzer   ContextAnalyzer
	decider    DecisionMaker
	generator  SQLGenerator
	validator  SQLValidator
	llm        llm.LLMProvider
	turnRepo   contract.ConversationTurnRepository
	executor   contract.ReadOnlyQueryExecutor
	schemaMeta contract.SchemaMetadataRepository
	history    *memory.HistoryCache
	audit      AuditPublisher
}

func NewChatService(
	analyzer ContextAnalyzer,
	decider DecisionMaker,
	generator SQLGenerator,
	validator SQLValidator,
	llmProvider llm.LLMProvider,
	turnRepo contract.ConversationTurnRepository,
	executor contract.ReadOnlyQueryExecutor,
	schemaMeta contract.SchemaMetadataRepository,
	history *memory.HistoryCache,
	audit AuditPublisher,
) IChatService {
	return &chatService{
		analyzer:   analyzer,
		decider:    decider,
		generator:  generator,
		validator:  validator,
		llm:        llmProvider,
		turnRepo:   turnRepo,
		executor:   executor,
		schemaMeta: schemaMeta,
		history:    history,
		audit:      audit,
	}
}

// StreamChat runs one conversational exchange end to end, emitting stream
// events as the pipeline advances. Memory is written only on turns that
// finish: the user turn once a statement survives validation (or a
// follow-up is accepted), the assistant turn only after its narration
// stream has fully completed. Rejected or failed turns leave no trace in
// the conversation history.
func (s *chatService) StreamChat(ctx context.Context, request *dto.ChatStreamRequest, emit EventEmitter) error {
	start := time.Now()
	traceId := uuid.New().String()

	text := strings.TrimSpace(request.Text)
	if text == "" {
		return s.emitError(emit, "message text must not be empty")
	}

	conversationId, minted, err := s.resolveConversationId(request.ConversationId)
	if err != nil {
		return s.emitError(emit, "invalid conversation id")
	}

	turns, err := s.loadHistory(ctx, conversationId, minted)
	if err != nil {
		log.Printf("[ERROR] ChatService: failed to load history for %s: %v", conversationId, err)
		return s.emitError(emit, "conversation history unavailable")
	}

	query, directive := stripDirective(text)
	if directive && query == "" {
		return s.emitError(emit, "empty database query after directive")
	}

	if !directive && !s.routeToDatabase(ctx, text) {
		return s.streamGeneralChat(ctx, conversationId, traceId, text, turns, start, emit)
	}

	return s.streamDatabaseAnswer(ctx, conversationId, traceId, text, query, turns, start, emit)
}

func (s *chatService) streamDatabaseAnswer(
	ctx context.Context,
	conversationId uuid.UUID,
	traceId string,
	text string,
	query string,
	history []cot.Turn,
	start time.Time,
	emit EventEmitter,
) error {
	analysis := s.analyzer.Analyze(ctx, query, history)
	if err := s.emit(emit, dto.StreamEventAnalysis, dto.AnalysisData{
		Intent:         analysis.Intent,
		Entities:       analysis.Entities,
		IsFollowUp:     analysis.IsFollowUp,
		RewrittenQuery: analysis.RewrittenQuery,
		Reasoning:      analysis.Reasoning,
	}); err != nil {
		return err
	}

	var (
		sql     string
		schemas []string
	)

	if analysis.IsFollowUp {
		// Follow-ups refine an already validated statement, so schema
		// selection, generation and semantic review are skipped. The
		// executor re-checks the read-only property before running it.
		sql = sqlgen.Sanitize(analysis.FinalSQL)
		log.Printf("[INFO] ChatService: follow-up path for %s, trace %s", conversationId, traceId)
		if err := s.emit(emit, dto.StreamEventSQLGenerated, dto.SQLGeneratedData{SQL: sql}); err != nil {
			return err
		}
	} else {
		decision, err := s.decider.Decide(ctx, analysis.RewrittenQuery)
		if err != nil {
			log.Printf("[ERROR] ChatService: schema decision failed, trace %s: %v", traceId, err)
			if errors.Is(err, cot.ErrNoSchemaMatch) {
				return s.emitError(emit, "no relevant schema found for this question")
			}
			return s.emitError(emit, "schema selection failed")
		}

		if err := s.emit(emit, dto.StreamEventSchemaSelected, s.buildSchemaSelected(ctx, decision)); err != nil {
			return err
		}
		for _, chunk := range decision.SelectedChunks {
			if table := extractTableName(chunk.Content); table != "" {
				schemas = append(schemas, table)
			}
		}

		sql, err = s.generator.Generate(ctx, analysis.RewrittenQuery, decision.FullSchemaContext)
		if err != nil {
			var violation *sqlgen.ReadOnlyViolationError
			if errors.As(err, &violation) {
				log.Printf("[ERROR] ChatService: read-only guardrail rejected statement, trace %s: %q", traceId, violation.SQL)
				return s.emitError(emit, "generated statement was rejected by the read-only guardrail")
			}
			log.Printf("[ERROR] ChatService: sql generation failed, trace %s: %v", traceId, err)
			return s.emitError(emit, "sql generation failed")
		}

		if err := s.emit(emit, dto.StreamEventSQLGenerated, dto.SQLGeneratedData{SQL: sql}); err != nil {
			return err
		}

		verdict := s.validator.Validate(ctx, analysis.RewrittenQuery, sql, decision.FullSchemaContext)
		if !verdict.IsValid {
			// Terminal for the turn: no execution, no memory write, and no
			// complete event follows.
			log.Printf("[WARN] ChatService: validation failed, trace %s: %v", traceId, verdict.Issues)
			return s.emit(emit, dto.StreamEventSQLValidationFailed, dto.SQLValidationFailedData{
				SQLQuery:   sql,
				Issues:     verdict.Issues,
				Suggestion: verdict.Suggestion,
			})
		}
	}

	if err := s.appendTurn(ctx, conversationId, constant.ConversationRoleUser, text, nil); err != nil {
		log.Printf("[ERROR] ChatService: failed to persist user turn, trace %s: %v", traceId, err)
		return s.emitError(emit, "conversation memory unavailable")
	}

	rows, err := s.executor.QueryForList(ctx, sql)
	if err != nil {
		var violation *sqlgen.ReadOnlyViolationError
		if errors.As(err, &violation) {
			log.Printf("[ERROR] ChatService: executor rejected non read-only statement, trace %s: %q", traceId, violation.SQL)
			return s.emitError(emit, "statement was rejected by the read-only guardrail")
		}
		log.Printf("[ERROR] ChatService: query execution failed, trace %s: %v", traceId, err)
		return s.emitError(emit, "query execution failed")
	}

	answer, err := s.narrateResults(ctx, analysis.RewrittenQuery, sql, rows, emit)
	if err != nil {
		log.Printf("[ERROR] ChatService: narration stream failed, trace %s: %v", traceId, err)
		return s.emitError(emit, "answer generation failed")
	}

	meta := &entity.TurnMeta{
		SQL:      sql,
		Intent:   analysis.Intent,
		Entities: analysis.Entities,
		Filters:  analysis.Filters,
		Schemas:  schemas,
	}
	if err := s.appendTurn(ctx, conversationId, constant.ConversationRoleAssistant, answer, meta); err != nil {
		log.Printf("[ERROR] ChatService: failed to persist assistant turn, trace %s: %v", traceId, err)
	}

	elapsed := time.Since(start).Milliseconds()
	if s.audit != nil {
		event := events.NewQueryExecutedEvent(conversationId.String(), traceId, sql, len(rows), elapsed)
		if err := s.audit.Publish(ctx, event); err != nil {
			log.Printf("[WARN] ChatService: audit publish failed, trace %s: %v", traceId, err)
		}
	}

	return s.emit(emit, dto.StreamEventComplete, dto.CompleteData{
		ConversationId: conversationId.String(),
		TraceId:        traceId,
		SQLQuery:       sql,
		RowCount:       len(rows),
		TotalTimeMs:    elapsed,
	})
}

func (s *chatService) streamGeneralChat(
	ctx context.Context,
	conversationId uuid.UUID,
	traceId string,
	text string,
	history []cot.Turn,
	start time.Time,
	emit EventEmitter,
) error {
	var sb strings.Builder
	sb.WriteString(constant.GeneralChatSystemPrompt)
	sb.WriteString("\n\nConversation so far:\n")
	for _, turn := range history {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("USER: ")
	sb.WriteString(text)

	var answer strings.Builder
	err := s.llm.Stream(ctx, sb.String(), func(chunk string) error {
		answer.WriteString(chunk)
		return s.emit(emit, dto.StreamEventResponseChunk, chunk)
	})
	if err != nil {
		log.Printf("[ERROR] ChatService: general chat stream failed, trace %s: %v", traceId, err)
		return s.emitError(emit, "answer generation failed")
	}

	// Memory is written only once the stream has completed.
	if err := s.appendTurn(ctx, conversationId, constant.ConversationRoleUser, text, nil); err != nil {
		log.Printf("[ERROR] ChatService: failed to persist user turn, trace %s: %v", traceId, err)
	}
	if err := s.appendTurn(ctx, conversationId, constant.ConversationRoleAssistant, answer.String(), nil); err != nil {
		log.Printf("[ERROR] ChatService: failed to persist assistant turn, trace %s: %v", traceId, err)
	}

	return s.emit(emit, dto.StreamEventComplete, dto.CompleteData{
		ConversationId: conversationId.String(),
		TraceId:        traceId,
		RowCount:       0,
		TotalTimeMs:    time.Since(start).Milliseconds(),
	})
}

// History returns the stored turns of a conversation, oldest first.
func (s *chatService) History(ctx context.Context, conversationId uuid.UUID, limit int) ([]dto.ConversationTurnDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	turns, err := s.turnRepo.Recent(ctx, conversationId, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ConversationTurnDTO, len(turns))
	for i, t := range turns {
		out[i] = dto.ConversationTurnDTO{
			Id:        t.Id.String(),
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt.UnixMilli(),
		}
		if t.Meta != nil {
			out[i].SQL = t.Meta.SQL
			out[i].Filters = t.Meta.Filters
		}
	}
	return out, nil
}

// narrateResults streams a natural-language answer built from the executed
// rows and returns the accumulated text.
func (s *chatService) narrateResults(ctx context.Context, question, sql string, rows []map[string]interface{}, emit EventEmitter) (string, error) {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal result rows: %w", err)
	}
	if len(rowsJSON) > maxNarratedResultChars {
		rowsJSON = rowsJSON[:maxNarratedResultChars]
	}

	prompt := fmt.Sprintf(constant.NarrationSystemPrompt, question, sql, string(rowsJSON))

	var answer strings.Builder
	err = s.llm.Stream(ctx, prompt, func(chunk string) error {
		answer.WriteString(chunk)
		return s.emit(emit, dto.StreamEventResponseChunk, chunk)
	})
	if err != nil {
		return "", err
	}
	return answer.String(), nil
}

// routeToDatabase asks the model whether a directive-less message needs
// data. Any failure defaults to the database path.
func (s *chatService) routeToDatabase(ctx context.Context, text string) bool {
	response, err := s.llm.Generate(ctx, fmt.Sprintf(constant.RouteDecisionPromptV1, text), llm.WithTemperature(0))
	if err != nil {
		log.Printf("[WARN] ChatService: route decision failed, defaulting to database: %v", err)
		return true
	}
	return !strings.Contains(strings.ToLower(response), "false")
}

func (s *chatService) buildSchemaSelected(ctx context.Context, decision *cot.Decision) dto.SchemaSelectedData {
	data := dto.SchemaSelectedData{Schemas: make([]dto.SelectedSchemaDTO, 0, len(decision.SelectedChunks))}
	for _, chunk := range decision.SelectedChunks {
		selected := dto.SelectedSchemaDTO{
			Table:       extractTableName(chunk.Content),
			HybridScore: chunk.HybridScore,
		}
		if selected.Table != "" && s.schemaMeta != nil {
			if meta, err := s.schemaMeta.Get(ctx, selected.Table); err == nil && meta != nil {
				selected.Columns = meta.Columns
			}
		}
		data.Schemas = append(data.Schemas, selected)
	}
	return data
}

func (s *chatService) resolveConversationId(raw string) (uuid.UUID, bool, error) {
	if raw == "" {
		return uuid.New(), true, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, false, nil
}

// loadHistory prefers the in-process cache; a miss falls through to the
// database. Freshly minted conversations have no history by definition.
func (s *chatService) loadHistory(ctx context.Context, conversationId uuid.UUID, minted bool) ([]cot.Turn, error) {
	if minted {
		return nil, nil
	}

	if cached, found := s.history.Get(conversationId.String()); found {
		return toTurns(cached), nil
	}

	recent, err := s.turnRepo.Recent(ctx, conversationId, 2*constant.DefaultContextWindow)
	if err != nil {
		return nil, err
	}
	s.history.Save(conversationId.String(), recent)
	return toTurns(recent), nil
}

func (s *chatService) appendTurn(ctx context.Context, conversationId uuid.UUID, role, content string, meta *entity.TurnMeta) error {
	turn := &entity.ConversationTurn{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		Meta:           meta,
		CreatedAt:      time.Now(),
	}
	if err := s.turnRepo.Append(ctx, turn); err != nil {
		return err
	}
	s.history.Invalidate(conversationId.String())
	return nil
}

func (s *chatService) emit(emit EventEmitter, eventType string, data interface{}) error {
	return emit(&dto.StreamEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *chatService) emitError(emit EventEmitter, message string) error {
	if err := s.emit(emit, dto.StreamEventError, dto.ErrorData{Message: message}); err != nil {
		return err
	}
	return errors.New(message)
}

func toTurns(turns []*entity.ConversationTurn) []cot.Turn {
	out := make([]cot.Turn, len(turns))
	for i, t := range turns {
		out[i] = cot.Turn{Role: t.Role, Content: t.Content}
		if t.Meta != nil {
			out[i].SQL = t.Meta.SQL
			out[i].Filters = t.Meta.Filters
		}
	}
	return out
}

// stripDirective removes the /db prefix when present, in any letter case.
func stripDirective(text string) (string, bool) {
	prefix := constant.DatabaseDirectivePrefix
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return text, false
	}
	rest := text[len(prefix):]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		// "/dbsomething" is not the directive.
		return text, false
	}
	return strings.TrimSpace(rest), true
}

// extractTableName pulls the table name out of a schema chunk that starts
// with "Table: <schema.name>".
func extractTableName(content string) string {
	idx := strings.Index(content, "Table:")
	if idx == -1 {
		return ""
	}
	rest := strings.TrimSpace(content[idx+len("Table:"):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ",;")
}
