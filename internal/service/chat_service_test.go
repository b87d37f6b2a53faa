package service

import (
	"context"
	"errors"
	"testing"

	"fleetquery-be/internal/constant"
	"fleetquery-be/internal/dto"
	"fleetquery-be/internal/entity"
	"fleetquery-be/internal/repository/contract"
	"fleetquery-be/internal/repository/memory"
	"fleetquery-be/pkg/cot"
	"fleetquery-be/pkg/events"
	"fleetquery-be/pkg/llm"
	"fleetquery-be/pkg/retrieval"
	"fleetquery-be/pkg/sqlgen"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	analysis   *cot.QueryAnalysis
	gotHistory []cot.Turn
}

func (f *fakeAnalyzer) Analyze(_ context.Context, query string, history []cot.Turn) *cot.QueryAnalysis {
	f.gotHistory = history
	if f.analysis != nil {
		return f.analysis
	}
	return &cot.QueryAnalysis{Intent: cot.IntentSelect, Entities: []string{"ecu"}, RewrittenQuery: query}
}

type fakeDecider struct {
	decision *cot.Decision
	err      error
	calls    int
}

func (f *fakeDecider) Decide(context.Context, string) (*cot.Decision, error) {
	f.calls++
	return f.decision, f.err
}

type fakeGenerator struct {
	sql   string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, string, []string) (string, error) {
	f.calls++
	return f.sql, f.err
}

type fakeValidator struct {
	result *cot.ValidationResult
	calls  int
}

func (f *fakeValidator) Validate(context.Context, string, string, []string) *cot.ValidationResult {
	f.calls++
	if f.result != nil {
		return f.result
	}
	return &cot.ValidationResult{IsValid: true}
}

type streamingLLM struct {
	chunks       []string
	streamErr    error
	generateResp string
}

func (f *streamingLLM) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return f.generateResp, nil
}

func (f *streamingLLM) Generate(context.Context, string, ...llm.Option) (string, error) {
	return f.generateResp, nil
}

func (f *streamingLLM) Stream(_ context.Context, _ string, onChunk func(string) error, _ ...llm.Option) error {
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, c := range f.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

type fakeTurnRepo struct {
	appended []*entity.ConversationTurn
	recent   []*entity.ConversationTurn
}

func (f *fakeTurnRepo) Append(_ context.Context, turn *entity.ConversationTurn) error {
	f.appended = append(f.appended, turn)
	return nil
}

func (f *fakeTurnRepo) Recent(context.Context, uuid.UUID, int) ([]*entity.ConversationTurn, error) {
	return f.recent, nil
}

type fakeExecutor struct {
	rows   []map[string]interface{}
	err    error
	gotSQL string
	calls  int
}

func (f *fakeExecutor) QueryForList(_ context.Context, sql string) ([]map[string]interface{}, error) {
	f.calls++
	f.gotSQL = sql
	return f.rows, f.err
}

type fakeSchemaMeta struct {
	metas map[string]*entity.SchemaMetadata
}

func (f *fakeSchemaMeta) Get(_ context.Context, table string) (*entity.SchemaMetadata, error) {
	return f.metas[table], nil
}

func (f *fakeSchemaMeta) Set(context.Context, *entity.SchemaMetadata) error { return nil }

type fakeAudit struct {
	published []events.Event
}

func (f *fakeAudit) Publish(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

type eventCollector struct {
	events []*dto.StreamEvent
}

func (c *eventCollector) emit(e *dto.StreamEvent) error {
	c.events = append(c.events, e)
	return nil
}

func (c *eventCollector) types() []string {
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func (c *eventCollector) last() *dto.StreamEvent {
	return c.events[len(c.events)-1]
}

type chatFixture struct {
	analyzer  *fakeAnalyzer
	decider   *fakeDecider
	generator *fakeGenerator
	validator *fakeValidator
	llm       *streamingLLM
	turns     *fakeTurnRepo
	executor  *fakeExecutor
	audit     *fakeAudit
	service   IChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		analyzer: &fakeAnalyzer{},
		decider: &fakeDecider{decision: &cot.Decision{
			SelectedChunks: []retrieval.Candidate{
				{ID: 1, Content: "Table: gtw.ecu Columns: id, serial, active", HybridScore: 0.8},
			},
			FullSchemaContext: []string{"Table: gtw.ecu Columns: id, serial, active"},
		}},
		generator: &fakeGenerator{sql: "SELECT serial FROM gtw.ecu WHERE active = true LIMIT 100"},
		validator: &fakeValidator{},
		llm:       &streamingLLM{chunks: []string{"There are ", "3 active ECUs."}},
		turns:     &fakeTurnRepo{},
		executor:  &fakeExecutor{rows: []map[string]interface{}{{"serial": "A1"}, {"serial": "B2"}, {"serial": "C3"}}},
		audit:     &fakeAudit{},
	}
	f.service = NewChatService(
		f.analyzer, f.decider, f.generator, f.validator, f.llm,
		f.turns, f.executor,
		&fakeSchemaMeta{metas: map[string]*entity.SchemaMetadata{
			"gtw.ecu": {Table: "gtw.ecu", Columns: []string{"id", "serial", "active"}},
		}},
		memory.NewHistoryCache(), f.audit,
	)
	return f
}

var _ contract.ConversationTurnRepository = (*fakeTurnRepo)(nil)
var _ contract.ReadOnlyQueryExecutor = (*fakeExecutor)(nil)
var _ contract.SchemaMetadataRepository = (*fakeSchemaMeta)(nil)

func TestStreamChatDatabasePathEventOrder(t *testing.T) {
	f := newChatFixture()
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db list active ecus"}, c.emit)

	require.NoError(t, err)
	assert.Equal(t, []string{
		dto.StreamEventAnalysis,
		dto.StreamEventSchemaSelected,
		dto.StreamEventSQLGenerated,
		dto.StreamEventResponseChunk,
		dto.StreamEventResponseChunk,
		dto.StreamEventComplete,
	}, c.types())

	complete := c.last().Data.(dto.CompleteData)
	assert.Equal(t, 3, complete.RowCount)
	assert.NotEmpty(t, complete.ConversationId)
	assert.NotEmpty(t, complete.TraceId)
	assert.Equal(t, f.generator.sql, complete.SQLQuery)

	analysis := c.events[0].Data.(dto.AnalysisData)
	assert.Equal(t, cot.IntentSelect, analysis.Intent)
	assert.Equal(t, []string{"ecu"}, analysis.Entities)

	// Schema metadata enrichment from the cached table description.
	selected := c.events[1].Data.(dto.SchemaSelectedData)
	require.Len(t, selected.Schemas, 1)
	assert.Equal(t, "gtw.ecu", selected.Schemas[0].Table)
	assert.Equal(t, []string{"id", "serial", "active"}, selected.Schemas[0].Columns)
}

func TestStreamChatPersistsAssistantTurnWithMeta(t *testing.T) {
	f := newChatFixture()
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db list active ecus"}, c.emit)

	require.NoError(t, err)
	require.Len(t, f.turns.appended, 2)
	assert.Equal(t, constant.ConversationRoleUser, f.turns.appended[0].Role)

	assistant := f.turns.appended[1]
	assert.Equal(t, constant.ConversationRoleAssistant, assistant.Role)
	assert.Equal(t, "There are 3 active ECUs.", assistant.Content)
	require.NotNil(t, assistant.Meta)
	assert.Equal(t, f.generator.sql, assistant.Meta.SQL)
	assert.Equal(t, cot.IntentSelect, assistant.Meta.Intent)
	assert.Equal(t, []string{"ecu"}, assistant.Meta.Entities)
	assert.Equal(t, []string{"gtw.ecu"}, assistant.Meta.Schemas)

	require.Len(t, f.audit.published, 1)
	assert.Equal(t, events.QueryExecutedType, f.audit.published[0].EventType())
}

func TestStreamChatFollowUpSkipsGenerationAndValidation(t *testing.T) {
	f := newChatFixture()
	f.analyzer.analysis = &cot.QueryAnalysis{
		IsFollowUp:     true,
		RewrittenQuery: "only active ecus from last week",
		FinalSQL:       "SELECT serial FROM gtw.ecu WHERE active = true AND update_date > now() - interval '7 days';",
	}
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db only last week"}, c.emit)

	require.NoError(t, err)
	assert.Zero(t, f.decider.calls)
	assert.Zero(t, f.generator.calls)
	assert.Zero(t, f.validator.calls)
	assert.NotContains(t, c.types(), dto.StreamEventSchemaSelected)

	// The refined statement is still announced before execution.
	require.Contains(t, c.types(), dto.StreamEventSQLGenerated)
	generated := c.events[1].Data.(dto.SQLGeneratedData)
	assert.Equal(t, "SELECT serial FROM gtw.ecu WHERE active = true AND update_date > now() - interval '7 days'", generated.SQL)

	// Trailing semicolon stripped before execution.
	assert.Equal(t, generated.SQL, f.executor.gotSQL)
}

func TestStreamChatValidationFailureIsTerminal(t *testing.T) {
	f := newChatFixture()
	f.validator.result = &cot.ValidationResult{
		IsValid:    false,
		Issues:     []string{"column fleet_name does not exist"},
		Suggestion: "SELECT serial FROM gtw.ecu",
	}
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db list ecus per fleet"}, c.emit)

	require.NoError(t, err)
	assert.Zero(t, f.executor.calls)

	// sql_validation_failed is the terminal event of the turn: nothing
	// streams and nothing completes after it.
	assert.Equal(t, dto.StreamEventSQLValidationFailed, c.last().Type)
	assert.NotContains(t, c.types(), dto.StreamEventComplete)
	assert.NotContains(t, c.types(), dto.StreamEventResponseChunk)

	failed := c.last().Data.(dto.SQLValidationFailedData)
	assert.Equal(t, f.generator.sql, failed.SQLQuery)
	assert.Equal(t, []string{"column fleet_name does not exist"}, failed.Issues)

	// Nothing reaches memory on a rejected turn, not even the user message.
	assert.Empty(t, f.turns.appended)
}

func TestStreamChatGuardrailViolationEmitsError(t *testing.T) {
	f := newChatFixture()
	f.generator.err = &sqlgen.ReadOnlyViolationError{SQL: "DELETE FROM gtw.ecu"}
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db remove ecus"}, c.emit)

	require.Error(t, err)
	assert.Zero(t, f.executor.calls)
	assert.Equal(t, dto.StreamEventError, c.last().Type)
	assert.Empty(t, f.turns.appended)
}

func TestStreamChatExecutorRejectionEmitsError(t *testing.T) {
	f := newChatFixture()
	f.executor.err = &sqlgen.ReadOnlyViolationError{SQL: "x"}
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db list ecus"}, c.emit)

	require.Error(t, err)
	assert.Equal(t, dto.StreamEventError, c.last().Type)
	require.Len(t, f.turns.appended, 1)
}

func TestStreamChatNarrationFailureSkipsMemoryWrite(t *testing.T) {
	f := newChatFixture()
	f.llm.streamErr = errors.New("stream interrupted")
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db list ecus"}, c.emit)

	require.Error(t, err)
	assert.Equal(t, dto.StreamEventError, c.last().Type)
	require.Len(t, f.turns.appended, 1)
	assert.Empty(t, f.audit.published)
}

func TestStreamChatEmptyTextRejected(t *testing.T) {
	f := newChatFixture()
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "   "}, c.emit)

	require.Error(t, err)
	assert.Equal(t, dto.StreamEventError, c.last().Type)
}

func TestStreamChatReusesProvidedConversationId(t *testing.T) {
	f := newChatFixture()
	f.turns.recent = []*entity.ConversationTurn{
		{Role: constant.ConversationRoleUser, Content: "list ecus"},
		{
			Role:    constant.ConversationRoleAssistant,
			Content: "Found 3.",
			Meta:    &entity.TurnMeta{SQL: "SELECT serial FROM gtw.ecu LIMIT 100"},
		},
	}
	c := &eventCollector{}
	convId := uuid.New().String()

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "/db only active", ConversationId: convId}, c.emit)

	require.NoError(t, err)
	assert.Equal(t, convId, c.last().Data.(dto.CompleteData).ConversationId)
	// History reached the analyzer with assistant SQL inlined.
	require.Len(t, f.analyzer.gotHistory, 2)
	assert.Equal(t, "SELECT serial FROM gtw.ecu LIMIT 100", f.analyzer.gotHistory[1].SQL)
}

func TestStreamChatGeneralChatPath(t *testing.T) {
	f := newChatFixture()
	f.llm.generateResp = "False"
	f.llm.chunks = []string{"Hello! ", "Ask me about your fleet."}
	c := &eventCollector{}

	err := f.service.StreamChat(context.Background(), &dto.ChatStreamRequest{Text: "hi there"}, c.emit)

	require.NoError(t, err)
	assert.Equal(t, []string{
		dto.StreamEventResponseChunk,
		dto.StreamEventResponseChunk,
		dto.StreamEventComplete,
	}, c.types())
	assert.Zero(t, f.decider.calls)
	require.Len(t, f.turns.appended, 2)
	assert.Nil(t, f.turns.appended[1].Meta)
	assert.Equal(t, "Hello! Ask me about your fleet.", f.turns.appended[1].Content)
}

func TestStripDirective(t *testing.T) {
	query, ok := stripDirective("/db list ecus")
	assert.True(t, ok)
	assert.Equal(t, "list ecus", query)

	// The directive is recognised in any letter case.
	query, ok = stripDirective("/DB list ecus")
	assert.True(t, ok)
	assert.Equal(t, "list ecus", query)

	query, ok = stripDirective("/Db count fleets")
	assert.True(t, ok)
	assert.Equal(t, "count fleets", query)

	query, ok = stripDirective("list ecus")
	assert.False(t, ok)
	assert.Equal(t, "list ecus", query)

	// Not the directive when glued to another word.
	_, ok = stripDirective("/dbdump now")
	assert.False(t, ok)
}

func TestExtractTableName(t *testing.T) {
	assert.Equal(t, "gtw.ecu", extractTableName("Table: gtw.ecu Columns: id, serial"))
	assert.Equal(t, "bs.bs_device", extractTableName("Some header\nTable: bs.bs_device, legacy"))
	assert.Empty(t, extractTableName("no table marker here"))
}
