// package repositories provides the client-side persistence layer.
//
// Every repository is a view over one SQLite key-value table whose values are JSON text.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stagelist/internal/shared"
)

// Storage keys. The first six match the keys the browser client keeps in localStorage.
const (
	KeySongs         = "stageListSongs"
	KeyNextID        = "stageListNextId"
	KeyTitle         = "stageListTitle"
	KeySound         = "metronomeSound"
	KeyCurrentListID = "currentStageListId"
	KeyStageLists    = "stageLists"
	KeyVolume        = "metronomeVolume"
	KeyAuthSession   = "authSession"
	KeyRememberMe    = "rememberMe"
)

// LocalStore reads and writes JSON values in the kv table.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore creates a LocalStore over a migrated database.
func NewLocalStore(db *sql.DB) *LocalStore {
	return &LocalStore{db: db}
}

// Get decodes the value stored at key into dst. Missing keys return [shared.ErrKeyNotFound].
func (s *LocalStore) Get(ctx context.Context, key string, dst any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Has reports whether key holds a value.
func (s *LocalStore) Has(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv WHERE key = ?", key).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

// Set encodes v as JSON and stores it at key.
func (s *LocalStore) Set(ctx context.Context, key string, v any) error {
	return s.SetMany(ctx, map[string]any{key: v})
}

// SetMany writes every entry in one transaction.
func (s *LocalStore) SetMany(ctx context.Context, entries map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(data), now)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *LocalStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// getOr decodes key into dst, leaving dst untouched when the key is absent.
func (s *LocalStore) getOr(ctx context.Context, key string, dst any) (bool, error) {
	err := s.Get(ctx, key, dst)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
