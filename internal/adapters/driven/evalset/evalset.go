// Package evalset loads evaluation inputs from disk: the curated
// ground-truth set (JSON) and the configuration matrix (YAML).
// Both are validated at load time so a bad file fails before any
// external call is made.
package evalset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// LoadGroundTruth reads a JSON array of ground-truth items.
// Every item is validated; a single malformed item rejects the file.
func LoadGroundTruth(path string) ([]domain.GroundTruthItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ground truth %s: %w", path, err)
	}

	var items []domain.GroundTruthItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse ground truth %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: ground truth %s is empty", domain.ErrInvalidConfig, path)
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("%w: duplicate ground-truth item id %s", domain.ErrInvalidConfig, item.ID)
		}
		seen[item.ID] = true
	}
	return items, nil
}

// Matrix is the YAML document describing the evaluation axes.
// The cross product of all axes forms the set of configurations.
type Matrix struct {
	Strategies  []domain.ChunkingStrategy `yaml:"strategies"`
	TopK        []int                     `yaml:"top_k"`
	SearchTypes []domain.SearchType       `yaml:"search_types"`
	Thresholds  []float64                 `yaml:"thresholds"`
}

// LoadMatrix reads a YAML matrix file and expands it into the full
// cross product of configurations. Every cell is validated.
func LoadMatrix(path string) ([]domain.EvalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix %s: %w", path, err)
	}

	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse matrix %s: %w", path, err)
	}
	return m.Expand()
}

// Expand returns the cross product of the matrix axes in declaration
// order, so the configuration order is stable across runs.
func (m Matrix) Expand() ([]domain.EvalConfig, error) {
	if len(m.Strategies) == 0 {
		return nil, fmt.Errorf("%w: matrix has no strategies", domain.ErrInvalidConfig)
	}
	if len(m.TopK) == 0 {
		return nil, fmt.Errorf("%w: matrix has no top_k values", domain.ErrInvalidConfig)
	}
	if len(m.SearchTypes) == 0 {
		return nil, fmt.Errorf("%w: matrix has no search_types", domain.ErrInvalidConfig)
	}
	if len(m.Thresholds) == 0 {
		return nil, fmt.Errorf("%w: matrix has no thresholds", domain.ErrInvalidConfig)
	}

	configs := make([]domain.EvalConfig, 0, len(m.Strategies)*len(m.TopK)*len(m.SearchTypes)*len(m.Thresholds))
	for _, strategy := range m.Strategies {
		for _, topK := range m.TopK {
			for _, searchType := range m.SearchTypes {
				for _, threshold := range m.Thresholds {
					cfg := domain.EvalConfig{
						Strategy:   strategy,
						TopK:       topK,
						SearchType: searchType,
						Threshold:  threshold,
					}
					if err := cfg.Validate(); err != nil {
						return nil, err
					}
					configs = append(configs, cfg)
				}
			}
		}
	}
	return configs, nil
}
