// Package sqlite provides a ResultStore backed by a SQLite database,
// for querying evaluation history with SQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
	config_key  TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	top_k       INTEGER NOT NULL,
	search_type TEXT NOT NULL,
	threshold   REAL NOT NULL,
	status      TEXT NOT NULL,
	composite   REAL NOT NULL,
	payload     TEXT NOT NULL,
	updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// Store persists evaluation runs in a single-table SQLite database.
// The full run is stored as a JSON payload; the scalar columns exist
// for ad hoc SQL over the matrix.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and if needed creates) the database file.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", domain.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Get returns the stored run for the config key.
func (s *Store) Get(ctx context.Context, key string) (*domain.EvaluationRun, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM evaluation_runs WHERE config_key = ?", key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", key, err)
	}

	var run domain.EvaluationRun
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", key, err)
	}
	return &run, nil
}

// Put stores a terminal run, replacing any previous run for its key.
// The write is a single statement, atomic by SQLite's transaction
// semantics.
func (s *Store) Put(ctx context.Context, run *domain.EvaluationRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.Config.Key(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluation_runs
			(config_key, run_id, strategy, top_k, search_type, threshold, status, composite, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(config_key) DO UPDATE SET
			run_id = excluded.run_id,
			status = excluded.status,
			composite = excluded.composite,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP`,
		run.Config.Key(),
		run.ID,
		string(run.Config.Strategy),
		run.Config.TopK,
		string(run.Config.SearchType),
		run.Config.Threshold,
		string(run.Status),
		run.Metrics.Composite,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("store run %s: %w", run.Config.Key(), err)
	}
	return nil
}

// List returns every stored run, sorted by config key.
func (s *Store) List(ctx context.Context) ([]*domain.EvaluationRun, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM evaluation_runs ORDER BY config_key")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.EvaluationRun
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run domain.EvaluationRun
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
