// Package memory provides an in-memory ResultStore for tests and
// dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

// Store keeps evaluation runs in a map. Contents are lost on exit.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.EvaluationRun
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*domain.EvaluationRun)}
}

// Get returns the stored run for the config key.
func (s *Store) Get(_ context.Context, key string) (*domain.EvaluationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *run
	return &copied, nil
}

// Put stores a terminal run under its config key.
func (s *Store) Put(_ context.Context, run *domain.EvaluationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.runs[run.Config.Key()] = &copied
	return nil
}

// List returns every stored run, sorted by config key.
func (s *Store) List(_ context.Context) ([]*domain.EvaluationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.EvaluationRun, 0, len(s.runs))
	for _, run := range s.runs {
		copied := *run
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Config.Key() < out[j].Config.Key()
	})
	return out, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
