package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

func sampleRun(topK int) *domain.EvaluationRun {
	return &domain.EvaluationRun{
		ID: "run-1",
		Config: domain.EvalConfig{
			Strategy:   domain.StrategySemantic,
			TopK:       topK,
			SearchType: domain.SearchTypeHybrid,
			Threshold:  0.7,
		},
		Status: domain.RunCompleted,
		Metrics: domain.Metrics{
			Composite:      0.61,
			ItemsEvaluated: 10,
		},
		StartedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
	}
}

func TestPutGet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	run := sampleRun(5)
	require.NoError(t, store.Put(context.Background(), run))

	got, err := store.Get(context.Background(), run.Config.Key())
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Config, got.Config)
	assert.Equal(t, run.Metrics.Composite, got.Metrics.Composite)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
}

func TestGet_NotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "semantic_top5_hybrid_t0.70")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPut_ReplacesExisting(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	run := sampleRun(5)
	require.NoError(t, store.Put(context.Background(), run))

	updated := sampleRun(5)
	updated.ID = "run-2"
	require.NoError(t, store.Put(context.Background(), updated))

	got, err := store.Get(context.Background(), run.Config.Key())
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.ID)
}

func TestPut_ArtifactFileName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sampleRun(5)))

	_, err = os.Stat(filepath.Join(dir, "semantic_top5_hybrid_t0.70.json"))
	assert.NoError(t, err)
}

func TestPut_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sampleRun(5)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "semantic_top5_hybrid_t0.70.json", entries[0].Name())
}

func TestList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sampleRun(10)))
	require.NoError(t, store.Put(context.Background(), sampleRun(3)))
	require.NoError(t, store.Put(context.Background(), sampleRun(5)))

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Sorted by config key.
	assert.Equal(t, 10, runs[0].Config.TopK)
	assert.Equal(t, 3, runs[1].Config.TopK)
	assert.Equal(t, 5, runs[2].Config.TopK)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), sampleRun(5)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".artifact-stale"), []byte("x"), 0o644))

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
