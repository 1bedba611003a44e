// Package syncqueue persists the durable FIFO of pending mutations.
//
// Items are read back ordered by timestamp; seq, assigned on insert, breaks
// ties between items created within the same clock tick.
package syncqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec Record
		ts  int64
	)
	if err := s.Scan(&rec.ID, &rec.Type, &rec.Payload, &ts, &rec.RetryCount); err != nil {
		return nil, err
	}
	rec.Timestamp = dbx.FromTimestamp(ts)
	return &rec, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, seq, type, payload, timestamp, retry_count)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sync_queue), ?, ?, ?, ?)
	`, rec.ID, rec.Type, rec.Payload, dbx.Timestamp(rec.Timestamp), rec.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s item %s: %w", rec.Type, rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, payload, timestamp, retry_count
		FROM sync_queue
		ORDER BY timestamp ASC, seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync queue: %w", err)
	}
	defer rows.Close()

	result := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync queue row: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync queue rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, type, payload, timestamp, retry_count FROM sync_queue WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync queue item %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sync queue: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) UpdateRetryCount(ctx context.Context, id string, retryCount int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sync_queue SET retry_count = ? WHERE id = ?`, retryCount, id)
	if err != nil {
		return fmt.Errorf("failed to update retry count of %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) UpdatePayload(ctx context.Context, id string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sync_queue SET payload = ? WHERE id = ?`, payload, id)
	if err != nil {
		return fmt.Errorf("failed to update payload of %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete sync queue item %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to clear sync queue: %w", err)
	}
	return nil
}
