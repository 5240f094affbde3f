package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

func TestRecallAtK(t *testing.T) {
	relevant := []string{"a", "b", "c"}

	tests := []struct {
		name      string
		retrieved []string
		want      float64
	}{
		{"all found", []string{"a", "b", "c"}, 1.0},
		{"partial", []string{"a", "x", "c"}, 2.0 / 3.0},
		{"none found", []string{"x", "y"}, 0},
		{"empty retrieval", nil, 0},
		{"duplicates count once", []string{"a", "a", "a"}, 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, recallAtK(tt.retrieved, relevant), 1e-12)
		})
	}

	assert.Zero(t, recallAtK([]string{"a"}, nil))
}

func TestPrecisionAtK(t *testing.T) {
	relevant := []string{"a", "b"}

	assert.InDelta(t, 0.5, precisionAtK([]string{"a", "x"}, relevant), 1e-12)
	assert.InDelta(t, 1.0, precisionAtK([]string{"a", "b"}, relevant), 1e-12)
	assert.Zero(t, precisionAtK([]string{"x", "y"}, relevant))
	assert.Zero(t, precisionAtK(nil, relevant))
	// A duplicate of one relevant chunk is not double credit.
	assert.InDelta(t, 0.5, precisionAtK([]string{"a", "a"}, relevant), 1e-12)
}

func TestReciprocalRank(t *testing.T) {
	relevant := []string{"a", "b"}

	assert.Equal(t, 1.0, reciprocalRank([]string{"a", "x"}, relevant))
	assert.Equal(t, 0.5, reciprocalRank([]string{"x", "b"}, relevant))
	assert.InDelta(t, 1.0/3.0, reciprocalRank([]string{"x", "y", "a"}, relevant), 1e-12)
	assert.Zero(t, reciprocalRank([]string{"x", "y"}, relevant))
	assert.Zero(t, reciprocalRank(nil, relevant))
}

func TestNDCGAtK(t *testing.T) {
	relevant := []string{"a", "b"}

	// Perfect ranking: relevant chunks in the first two positions.
	assert.InDelta(t, 1.0, ndcgAtK([]string{"a", "b", "x"}, relevant), 1e-12)

	// One relevant chunk at rank 3 of 3: DCG = 1/log2(4), IDCG = 1/log2(2) + 1/log2(3).
	want := (1.0 / math.Log2(4)) / (1.0/math.Log2(2) + 1.0/math.Log2(3))
	assert.InDelta(t, want, ndcgAtK([]string{"x", "y", "a"}, relevant), 1e-12)

	assert.Zero(t, ndcgAtK([]string{"x"}, relevant))
	assert.Zero(t, ndcgAtK(nil, relevant))
	assert.Zero(t, ndcgAtK([]string{"a"}, nil))
}

func TestAveragePrecision(t *testing.T) {
	relevant := []string{"a", "b"}

	// Relevant at ranks 1 and 3: (1/1 + 2/3) / 2.
	assert.InDelta(t, (1.0+2.0/3.0)/2.0, averagePrecision([]string{"a", "x", "b"}, relevant), 1e-12)

	// Only one relevant reachable at depth 1: denominator is min(|relevant|, k).
	assert.InDelta(t, 1.0, averagePrecision([]string{"a"}, relevant), 1e-12)

	assert.Zero(t, averagePrecision([]string{"x", "y"}, relevant))
	assert.Zero(t, averagePrecision(nil, relevant))
}

func TestCompositeScore(t *testing.T) {
	ret := domain.RetrieverMetrics{Recall: 1.0, Precision: 1.0, MRR: 1.0}
	gen := domain.GeneratorMetrics{Relevance: 5.0, Faithfulness: 5.0}
	assert.InDelta(t, 1.0, compositeScore(ret, gen), 1e-12)

	// Judge floor scores normalise to zero.
	gen = domain.GeneratorMetrics{Relevance: 1.0, Faithfulness: 1.0}
	assert.InDelta(t, 0.5, compositeScore(ret, gen), 1e-12)

	ret = domain.RetrieverMetrics{Recall: 0.6, Precision: 0.4, MRR: 0.5}
	gen = domain.GeneratorMetrics{Relevance: 3.0, Faithfulness: 4.0}
	want := 0.5*(0.6+0.4+0.5)/3 + 0.5*((2.0/4.0)+(3.0/4.0))/2
	assert.InDelta(t, want, compositeScore(ret, gen), 1e-12)
}

func TestNormalizeJudge(t *testing.T) {
	assert.Zero(t, normalizeJudge(1))
	assert.Equal(t, 0.5, normalizeJudge(3))
	assert.Equal(t, 1.0, normalizeJudge(5))
}
