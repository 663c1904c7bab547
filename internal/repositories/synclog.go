package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
)

// SyncLogRepository records background sync outcomes in the sync_log table.
type SyncLogRepository struct {
	db *sql.DB
}

// NewSyncLogRepository creates a SyncLogRepository with the given database connection
func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Record stores the result of job; a nil err is a success.
func (r *SyncLogRepository) Record(ctx context.Context, job string, err error) error {
	var message any
	if err != nil {
		message = err.Error()
	}

	_, execErr := r.db.ExecContext(ctx,
		"INSERT INTO sync_log (job, ok, error, created_at) VALUES (?, ?, ?, ?)",
		job, err == nil, message, time.Now().UTC(),
	)
	if execErr != nil {
		return fmt.Errorf("failed to record sync job: %w", execErr)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *SyncLogRepository) Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job, ok, error, created_at
		FROM sync_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var (
			e       models.SyncLogEntry
			message sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Job, &e.OK, &message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}
		e.Error = message.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (r *SyncLogRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sync_log WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync log: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
