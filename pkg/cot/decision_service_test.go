package cot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetquery-be/pkg/retrieval"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimensions() int { return len(f.vector) }

type fakeRetriever struct {
	candidates []retrieval.Candidate
	err        error
	gotTopK    int
}

func (f *fakeRetriever) NearestByVector(_ context.Context, _ []float32, topK int) ([]retrieval.Candidate, error) {
	f.gotTopK = topK
	return f.candidates, f.err
}

func TestDecideSelectsTopChunks(t *testing.T) {
	retr := &fakeRetriever{candidates: []retrieval.Candidate{
		{ID: 1, Content: "Table: gtw.ecu Columns: id, serial, active", Distance: 0.1},
		{ID: 2, Content: "Table: gtw.vehicle Columns: vin, model", Distance: 0.2},
		{ID: 3, Content: "Table: bs.bs_device Columns: id, name", Distance: 0.4},
	}}
	svc := NewDecisionService(&fakeEmbedder{vector: []float32{0.1, 0.2}}, retr, retrieval.NewReranker())

	decision, err := svc.Decide(context.Background(), "list active ecus")

	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, retr.gotTopK)
	assert.Len(t, decision.SelectedChunks, DefaultTopN)
	assert.Len(t, decision.FullSchemaContext, DefaultTopN)
	assert.False(t, decision.NeedsUserChoice)
	assert.Equal(t, decision.SelectedChunks[0].Content, decision.FullSchemaContext[0])
}

func TestDecideEmbeddingFailure(t *testing.T) {
	cause := errors.New("provider down")
	svc := NewDecisionService(&fakeEmbedder{err: cause}, &fakeRetriever{}, retrieval.NewReranker())

	_, err := svc.Decide(context.Background(), "list ecus")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.ErrorIs(t, err, cause)
}

func TestDecideEmptyVector(t *testing.T) {
	svc := NewDecisionService(&fakeEmbedder{vector: nil}, &fakeRetriever{}, retrieval.NewReranker())

	_, err := svc.Decide(context.Background(), "list ecus")

	var embErr *EmbeddingError
	require.ErrorAs(t, err, &embErr)
}

func TestDecideNoCandidates(t *testing.T) {
	svc := NewDecisionService(&fakeEmbedder{vector: []float32{0.1}}, &fakeRetriever{}, retrieval.NewReranker())

	_, err := svc.Decide(context.Background(), "list ecus")

	assert.ErrorIs(t, err, ErrNoSchemaMatch)
}

func TestDecideRetrieverFailure(t *testing.T) {
	cause := errors.New("db unavailable")
	svc := NewDecisionService(&fakeEmbedder{vector: []float32{0.1}}, &fakeRetriever{err: cause}, retrieval.NewReranker())

	_, err := svc.Decide(context.Background(), "list ecus")

	assert.ErrorIs(t, err, cause)
}
