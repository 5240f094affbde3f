package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func run(strategy domain.ChunkingStrategy, topK int) *domain.EvaluationRun {
	return &domain.EvaluationRun{
		ID: "run-" + string(strategy),
		Config: domain.EvalConfig{
			Strategy:   strategy,
			TopK:       topK,
			SearchType: domain.SearchTypeHybrid,
			Threshold:  0.7,
		},
		Status: domain.RunCompleted,
		Metrics: domain.Metrics{
			Composite:      0.55,
			ItemsEvaluated: 4,
		},
	}
}

func TestPutGet(t *testing.T) {
	store := testStore(t)

	original := run(domain.StrategyParagraph, 5)
	require.NoError(t, store.Put(context.Background(), original))

	got, err := store.Get(context.Background(), original.Config.Key())
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Config, got.Config)
	assert.Equal(t, original.Metrics.Composite, got.Metrics.Composite)
}

func TestGet_NotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPut_Upsert(t *testing.T) {
	store := testStore(t)

	first := run(domain.StrategySemantic, 5)
	require.NoError(t, store.Put(context.Background(), first))

	second := run(domain.StrategySemantic, 5)
	second.ID = "run-replacement"
	second.Status = domain.RunFailed
	require.NoError(t, store.Put(context.Background(), second))

	got, err := store.Get(context.Background(), first.Config.Key())
	require.NoError(t, err)
	assert.Equal(t, "run-replacement", got.ID)
	assert.Equal(t, domain.RunFailed, got.Status)

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestList_Sorted(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.Put(context.Background(), run(domain.StrategySemantic, 5)))
	require.NoError(t, store.Put(context.Background(), run(domain.StrategyBasicRecursive, 5)))
	require.NoError(t, store.Put(context.Background(), run(domain.StrategyParagraph, 5)))

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, domain.StrategyBasicRecursive, runs[0].Config.Strategy)
	assert.Equal(t, domain.StrategyParagraph, runs[1].Config.Strategy)
	assert.Equal(t, domain.StrategySemantic, runs[2].Config.Strategy)
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
