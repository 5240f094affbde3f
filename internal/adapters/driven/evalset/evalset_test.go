package evalset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadGroundTruth(t *testing.T) {
	path := writeFile(t, "ground_truth.json", `[
		{
			"id": "gt-1",
			"query": "What is the recommended tyre pressure?",
			"vehicle_model": "MG_Astor",
			"relevant_chunk_ids": ["c1", "c2"],
			"reference_answer": "33 PSI when cold.",
			"key_facts": ["33 PSI", "cold"]
		},
		{
			"id": "gt-2",
			"query": "How do I reset the service reminder?",
			"relevant_chunk_ids": ["c7"],
			"reference_answer": "Hold the trip button while turning the ignition on."
		}
	]`)

	items, err := LoadGroundTruth(path)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "gt-1", items[0].ID)
	assert.Equal(t, "MG_Astor", items[0].VehicleModel)
	assert.Equal(t, []string{"c1", "c2"}, items[0].RelevantChunkIDs)
	assert.Equal(t, []string{"33 PSI", "cold"}, items[0].KeyFacts)
	assert.Empty(t, items[1].KeyFacts)
}

func TestLoadGroundTruth_MissingFile(t *testing.T) {
	_, err := LoadGroundTruth(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadGroundTruth_InvalidJSON(t *testing.T) {
	path := writeFile(t, "bad.json", `{not json`)

	_, err := LoadGroundTruth(path)
	assert.Error(t, err)
}

func TestLoadGroundTruth_EmptyArray(t *testing.T) {
	path := writeFile(t, "empty.json", `[]`)

	_, err := LoadGroundTruth(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoadGroundTruth_InvalidItem(t *testing.T) {
	// Missing relevant_chunk_ids
	path := writeFile(t, "invalid.json", `[
		{"id": "gt-1", "query": "q", "reference_answer": "a"}
	]`)

	_, err := LoadGroundTruth(path)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoadGroundTruth_DuplicateID(t *testing.T) {
	path := writeFile(t, "dup.json", `[
		{"id": "gt-1", "query": "q1", "relevant_chunk_ids": ["c1"], "reference_answer": "a1"},
		{"id": "gt-1", "query": "q2", "relevant_chunk_ids": ["c2"], "reference_answer": "a2"}
	]`)

	_, err := LoadGroundTruth(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadMatrix(t *testing.T) {
	path := writeFile(t, "matrix.yaml", `
strategies:
  - basic_recursive
  - semantic
top_k:
  - 3
  - 5
search_types:
  - hybrid
thresholds:
  - 0.7
`)

	configs, err := LoadMatrix(path)

	require.NoError(t, err)
	require.Len(t, configs, 4)

	// Declaration order: strategy outermost, threshold innermost
	assert.Equal(t, domain.EvalConfig{
		Strategy: domain.StrategyBasicRecursive, TopK: 3,
		SearchType: domain.SearchTypeHybrid, Threshold: 0.7,
	}, configs[0])
	assert.Equal(t, domain.EvalConfig{
		Strategy: domain.StrategyBasicRecursive, TopK: 5,
		SearchType: domain.SearchTypeHybrid, Threshold: 0.7,
	}, configs[1])
	assert.Equal(t, domain.StrategySemantic, configs[2].Strategy)
	assert.Equal(t, domain.StrategySemantic, configs[3].Strategy)
}

func TestLoadMatrix_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "strategies: [unclosed")

	_, err := LoadMatrix(path)
	assert.Error(t, err)
}

func TestMatrix_Expand_FullProduct(t *testing.T) {
	m := Matrix{
		Strategies:  domain.AllStrategies(),
		TopK:        []int{3, 5, 10},
		SearchTypes: domain.AllSearchTypes(),
		Thresholds:  []float64{0.5, 0.7},
	}

	configs, err := m.Expand()

	require.NoError(t, err)
	assert.Len(t, configs, 4*3*3*2)

	// Keys must be unique across the product
	keys := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		assert.False(t, keys[cfg.Key()], "duplicate key %s", cfg.Key())
		keys[cfg.Key()] = true
	}
}

func TestMatrix_Expand_MissingAxis(t *testing.T) {
	tests := []struct {
		name   string
		matrix Matrix
	}{
		{"no strategies", Matrix{TopK: []int{5}, SearchTypes: []domain.SearchType{domain.SearchTypeHybrid}, Thresholds: []float64{0.7}}},
		{"no top_k", Matrix{Strategies: []domain.ChunkingStrategy{domain.StrategySemantic}, SearchTypes: []domain.SearchType{domain.SearchTypeHybrid}, Thresholds: []float64{0.7}}},
		{"no search_types", Matrix{Strategies: []domain.ChunkingStrategy{domain.StrategySemantic}, TopK: []int{5}, Thresholds: []float64{0.7}}},
		{"no thresholds", Matrix{Strategies: []domain.ChunkingStrategy{domain.StrategySemantic}, TopK: []int{5}, SearchTypes: []domain.SearchType{domain.SearchTypeHybrid}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.matrix.Expand()
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestMatrix_Expand_InvalidCell(t *testing.T) {
	m := Matrix{
		Strategies:  []domain.ChunkingStrategy{"sliding_window"},
		TopK:        []int{5},
		SearchTypes: []domain.SearchType{domain.SearchTypeHybrid},
		Thresholds:  []float64{0.7},
	}

	_, err := m.Expand()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
