// Package file provides a ResultStore writing one JSON artifact per
// evaluation config.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

const artifactExt = ".json"

// Store persists evaluation runs as <dir>/<config-key>.json files.
// Writes are atomic (temp file + rename), so a crash never leaves a
// half-written artifact behind.
type Store struct {
	dir string

	// mu serialises writers. Artifact files are small; one lock is
	// simpler than per-key locking and never the bottleneck next to
	// the LLM calls that precede a write.
	mu sync.Mutex
}

// NewStore creates the artifact directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: results directory is required", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the stored run for the config key.
func (s *Store) Get(_ context.Context, key string) (*domain.EvaluationRun, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	var run domain.EvaluationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", key, err)
	}
	return &run, nil
}

// Put stores a terminal run atomically under its config key.
func (s *Store) Put(_ context.Context, run *domain.EvaluationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", run.Config.Key(), err)
	}

	target := s.path(run.Config.Key())
	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact %s: %w", run.Config.Key(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact %s: %w", run.Config.Key(), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish artifact %s: %w", run.Config.Key(), err)
	}
	return nil
}

// List returns every stored run, sorted by config key.
func (s *Store) List(_ context.Context) ([]*domain.EvaluationRun, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}

	var runs []*domain.EvaluationRun
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, artifactExt) || strings.HasPrefix(name, ".") {
			continue
		}
		key := strings.TrimSuffix(name, artifactExt)
		run, err := s.Get(context.Background(), key)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Config.Key() < runs[j].Config.Key()
	})
	return runs, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+artifactExt)
}
