package chunkers

import (
	"fmt"
	"sort"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Registry maps chunking strategies to their implementations.
// Strategy selection is a lookup, never a branching call site.
type Registry struct {
	chunkers map[domain.ChunkingStrategy]driven.Chunker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		chunkers: make(map[domain.ChunkingStrategy]driven.Chunker),
	}
}

// Register adds a chunker under its own strategy name.
func (r *Registry) Register(c driven.Chunker) {
	r.chunkers[c.Name()] = c
}

// Get returns the chunker for the strategy.
// Unknown or unregistered strategies are configuration errors.
func (r *Registry) Get(strategy domain.ChunkingStrategy) (driven.Chunker, error) {
	c, ok := r.chunkers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: no chunker registered for strategy %q",
			domain.ErrInvalidConfig, strategy)
	}
	return c, nil
}

// Has reports whether the strategy has a registered chunker.
func (r *Registry) Has(strategy domain.ChunkingStrategy) bool {
	_, ok := r.chunkers[strategy]
	return ok
}

// Strategies returns the registered strategies in a stable order.
func (r *Registry) Strategies() []domain.ChunkingStrategy {
	out := make([]domain.ChunkingStrategy, 0, len(r.chunkers))
	for s := range r.chunkers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
