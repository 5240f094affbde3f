package driving

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// Evaluator runs the ground-truth set across a configuration matrix and
// aggregates retriever, generator and end-to-end metrics per config.
type Evaluator interface {
	// Run executes every config against the items. Configs with an
	// existing completed artifact are skipped (idempotent replay).
	// Per-item failures are recorded, not fatal; a config-level failure
	// marks only that config's run failed. The returned map is keyed by
	// EvalConfig.Key().
	Run(ctx context.Context, items []domain.GroundTruthItem, configs []domain.EvalConfig) (map[string]*domain.EvaluationRun, error)
}
