package menus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, short_id, edit_key, name, description, created_by, start_date,
	period_weeks, total_days, is_discoverable, discovery_tags, view_count, star_count,
	created_at, updated_at, last_synced`

type scanner interface {
	Scan(dest ...any) error
}

func scanMenu(s scanner) (*models.Menu, error) {
	var (
		m                            models.Menu
		tags                         string
		created, updated, lastSynced int64
	)
	err := s.Scan(&m.ID, &m.ShortID, &m.EditKey, &m.Name, &m.Description, &m.CreatedBy, &m.StartDate,
		&m.PeriodWeeks, &m.TotalDays, &m.IsDiscoverable, &tags, &m.ViewCount, &m.StarCount,
		&created, &updated, &lastSynced)
	if err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &m.DiscoveryTags); err != nil {
			return nil, fmt.Errorf("decode discovery tags of menu %s: %w", m.ID, err)
		}
	}
	m.CreatedAt = dbx.FromTimestamp(created)
	m.UpdatedAt = dbx.FromTimestamp(updated)
	m.LastSynced = dbx.FromTimestamp(lastSynced)
	return &m, nil
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, m *models.Menu) error {
	tags := m.DiscoveryTags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode discovery tags of menu %s: %w", m.ID, err)
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM menus WHERE short_id = ? AND id <> ?`, m.ShortID, m.ID); err != nil {
		return fmt.Errorf("failed to release short id %s: %w", m.ShortID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO menus (id, short_id, edit_key, name, description, created_by, start_date,
			period_weeks, total_days, is_discoverable, discovery_tags, view_count, star_count,
			created_at, updated_at, last_synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			short_id = excluded.short_id,
			edit_key = excluded.edit_key,
			name = excluded.name,
			description = excluded.description,
			created_by = excluded.created_by,
			start_date = excluded.start_date,
			period_weeks = excluded.period_weeks,
			total_days = excluded.total_days,
			is_discoverable = excluded.is_discoverable,
			discovery_tags = excluded.discovery_tags,
			view_count = excluded.view_count,
			star_count = excluded.star_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			last_synced = excluded.last_synced
	`, m.ID, m.ShortID, m.EditKey, m.Name, m.Description, m.CreatedBy, m.StartDate,
		m.PeriodWeeks, m.TotalDays, m.IsDiscoverable, string(rawTags), m.ViewCount, m.StarCount,
		dbx.Timestamp(m.CreatedAt), dbx.Timestamp(m.UpdatedAt), dbx.Timestamp(m.LastSynced))
	if err != nil {
		return fmt.Errorf("failed to save menu %s: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, where string, arg any) (*models.Menu, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM menus WHERE `+where+` = ?`, arg)
	m, err := scanMenu(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Menu, error) {
	m, err := r.getOne(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu %s: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetByShortID(ctx context.Context, shortID string) (*models.Menu, error) {
	m, err := r.getOne(ctx, "short_id", shortID)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu by short id %s: %w", shortID, err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Menu, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM menus ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Menu, 0)
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete menu %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menus`); err != nil {
		return fmt.Errorf("failed to clear menus: %w", err)
	}
	return nil
}
