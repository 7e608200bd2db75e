// Package idempotency is the durable executor result cache: an opaque
// sqlite store keyed by task_id holding previously recorded signed results.
// The kernel core persists nothing; this store belongs to the executors
// that own it.
package idempotency

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // local-first result cache

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Store is a sqlite-backed executor.ResultStore.
type Store struct {
	db *sql.DB
}

// Open creates or opens the result cache at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("idempotency: open: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			task_id TEXT PRIMARY KEY,
			result  BLOB NOT NULL
		)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("idempotency: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the recorded result for taskID, if any.
func (s *Store) Get(taskID string) (model.ExecutionResult, bool, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT result FROM results WHERE task_id = ?`, taskID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExecutionResult{}, false, nil
	}
	if err != nil {
		return model.ExecutionResult{}, false, fmt.Errorf("idempotency: get: %w", err)
	}
	var result model.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return model.ExecutionResult{}, false, fmt.Errorf("idempotency: decode: %w", err)
	}
	return result, true, nil
}

// Put records a signed result for taskID. The first recording wins;
// replaying a completed task never overwrites its result.
func (s *Store) Put(taskID string, result model.ExecutionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency: encode: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO results (task_id, result) VALUES (?, ?) ON CONFLICT (task_id) DO NOTHING`,
		taskID, raw,
	); err != nil {
		return fmt.Errorf("idempotency: put: %w", err)
	}
	return nil
}
