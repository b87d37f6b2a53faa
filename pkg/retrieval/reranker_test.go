package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHybridScoreFormula(t *testing.T) {
	// cosine_distance=0.2, bm25=0.5 -> 0.6*0.8 + 0.4*0.5 = 0.68
	assert.InDelta(t, 0.68, HybridScore(0.2, 0.5), 1e-9)
}

func TestRerankEmptyCandidates(t *testing.T) {
	r := NewReranker()
	out := r.Rerank(nil, []float32{0.1}, "list ecus", 2)
	assert.Empty(t, out)
}

func TestRerankDeterministic(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Content: "Table: gtw.ecu Columns: id, serial, active, update_date", Distance: 0.10},
		{ID: 2, Content: "Table: gtw.vehicle Columns: vin, model, created_at", Distance: 0.25},
		{ID: 3, Content: "Table: bs.bs_ecu Columns: id, serial, status", Distance: 0.30},
	}

	r := NewReranker()
	first := r.Rerank(candidates, nil, "active ecu serial", 3)
	second := r.Rerank(candidates, nil, "active ecu serial", 3)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].HybridScore, second[i].HybridScore)
		assert.Equal(t, first[i].BM25Score, second[i].BM25Score)
	}
}

func TestRerankTruncatesToTopN(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Content: "ecu table", Distance: 0.1},
		{ID: 2, Content: "vehicle table", Distance: 0.2},
		{ID: 3, Content: "operation table", Distance: 0.3},
	}

	r := NewReranker()
	out := r.Rerank(candidates, nil, "ecu", 2)
	assert.Len(t, out, 2)
}

func TestRerankTiesKeepVectorDistanceOrder(t *testing.T) {
	// Identical content and distance produce identical hybrid scores;
	// the stable sort must preserve the incoming (nearest-first) order.
	candidates := []Candidate{
		{ID: 10, Content: "same content", Distance: 0.2},
		{ID: 20, Content: "same content", Distance: 0.2},
		{ID: 30, Content: "same content", Distance: 0.2},
	}

	r := NewReranker()
	out := r.Rerank(candidates, nil, "unrelated query", 3)

	assert.Equal(t, int64(10), out[0].ID)
	assert.Equal(t, int64(20), out[1].ID)
	assert.Equal(t, int64(30), out[2].ID)
}

func TestRerankPrefersLexicalMatchOnCloseDistances(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Content: "Table: gtw.vehicle Columns: vin, model", Distance: 0.20},
		{ID: 2, Content: "Table: gtw.ecu Columns: id, serial, active", Distance: 0.21},
	}

	r := NewReranker()
	out := r.Rerank(candidates, nil, "ecu serial active", 2)

	assert.Equal(t, int64(2), out[0].ID)
	assert.Greater(t, out[0].BM25Score, out[1].BM25Score)
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	candidates := []Candidate{
		{ID: 1, Content: "b", Distance: 0.4},
		{ID: 2, Content: "a", Distance: 0.1},
	}

	r := NewReranker()
	_ = r.Rerank(candidates, nil, "a", 2)

	assert.Equal(t, int64(1), candidates[0].ID)
	assert.Zero(t, candidates[0].HybridScore)
}
