package driven

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// ResultStore persists evaluation runs keyed by EvalConfig.Key().
// The store is append-only from the harness's perspective: a run is
// written once on reaching a terminal state and never mutated after.
// Implementations must serialise writes per config key.
type ResultStore interface {
	// Get returns the stored run for the config key.
	// Returns domain.ErrNotFound when no run exists.
	Get(ctx context.Context, key string) (*domain.EvaluationRun, error)

	// Put stores a terminal run atomically under its config key,
	// replacing any previous run for that key.
	Put(ctx context.Context, run *domain.EvaluationRun) error

	// List returns every stored run.
	List(ctx context.Context) ([]*domain.EvaluationRun, error)

	// Close releases resources.
	Close() error
}
