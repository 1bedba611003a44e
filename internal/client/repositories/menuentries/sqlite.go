// Package menuentries stores cached menu entries in SQLite. Storage is keyed
// by the surrogate id; (menu_id, date, meal_type) is a unique natural key.
package menuentries

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

const selectColumns = `id, menu_id, meal_id, date, meal_type, notes, meal, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.MenuEntry, error) {
	var (
		e        models.MenuEntry
		mealType string
		meal     sql.NullString
		created  int64
	)
	if err := s.Scan(&e.ID, &e.MenuID, &e.MealID, &e.Date, &mealType, &e.Notes, &meal, &created); err != nil {
		return nil, err
	}
	e.MealType = models.MealType(mealType)
	e.CreatedAt = dbx.FromTimestamp(created)
	if meal.Valid && meal.String != "" {
		var m models.Meal
		if err := json.Unmarshal([]byte(meal.String), &m); err != nil {
			return nil, fmt.Errorf("decode meal of entry %s: %w", e.ID, err)
		}
		e.Meal = &m
	}
	return &e, nil
}

// CreateOrUpdate upserts by id. A row holding the same natural key under
// another id must be removed first; the unique index rejects the write
// otherwise.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, e *models.MenuEntry) error {
	var meal sql.NullString
	if e.Meal != nil {
		b, err := json.Marshal(e.Meal)
		if err != nil {
			return fmt.Errorf("encode meal of entry %s: %w", e.ID, err)
		}
		meal = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO menu_entries (id, menu_id, meal_id, date, meal_type, notes, meal, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			menu_id = excluded.menu_id,
			meal_id = excluded.meal_id,
			date = excluded.date,
			meal_type = excluded.meal_type,
			notes = excluded.notes,
			meal = excluded.meal,
			created_at = excluded.created_at
	`, e.ID, e.MenuID, e.MealID, e.Date, string(e.MealType), e.Notes, meal, dbx.Timestamp(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save menu entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.MenuEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM menu_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetByMenuID(ctx context.Context, menuID string) ([]*models.MenuEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM menu_entries WHERE menu_id = ? ORDER BY date, meal_type`, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of menu %s: %w", menuID, err)
	}
	defer rows.Close()

	result := make([]*models.MenuEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu entry row: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu entry rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByNaturalKey(ctx context.Context, key models.EntryKey) (*models.MenuEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM menu_entries WHERE menu_id = ? AND date = ? AND meal_type = ?`,
		key.MenuID, key.Date, string(key.MealType))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu entry %s/%s/%s: %w", key.MenuID, key.Date, key.MealType, err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete menu entry %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByNaturalKey(ctx context.Context, key models.EntryKey) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM menu_entries WHERE menu_id = ? AND date = ? AND meal_type = ?`,
		key.MenuID, key.Date, string(key.MealType))
	if err != nil {
		return fmt.Errorf("failed to delete menu entry %s/%s/%s: %w", key.MenuID, key.Date, key.MealType, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByMenuID(ctx context.Context, menuID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_entries WHERE menu_id = ?`, menuID); err != nil {
		return fmt.Errorf("failed to delete entries of menu %s: %w", menuID, err)
	}
	return nil
}

// ReassignMenu repoints every entry of menu from to menu to. Entries of to
// that collide on the natural key are kept and the moved duplicates dropped.
func (r *SQLiteRepository) ReassignMenu(ctx context.Context, from, to string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM menu_entries
		WHERE menu_id = ? AND EXISTS (
			SELECT 1 FROM menu_entries AS t
			WHERE t.menu_id = ? AND t.date = menu_entries.date AND t.meal_type = menu_entries.meal_type
		)`, from, to)
	if err != nil {
		return fmt.Errorf("failed to reassign entries %s -> %s: %w", from, to, err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE menu_entries SET menu_id = ? WHERE menu_id = ?`, to, from); err != nil {
		return fmt.Errorf("failed to reassign entries %s -> %s: %w", from, to, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM menu_entries`); err != nil {
		return fmt.Errorf("failed to clear menu entries: %w", err)
	}
	return nil
}
