package meals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `m.id, m.name, m.description, m.food_items, m.tags, m.is_preset, m.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMeal(s scanner) (*models.Meal, error) {
	var (
		m               models.Meal
		foodItems, tags string
		created         int64
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Description, &foodItems, &tags, &m.IsPreset, &created); err != nil {
		return nil, err
	}
	if err := decodeList(foodItems, &m.FoodItems); err != nil {
		return nil, fmt.Errorf("decode food items of meal %s: %w", m.ID, err)
	}
	if err := decodeList(tags, &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of meal %s: %w", m.ID, err)
	}
	m.CreatedAt = dbx.FromTimestamp(created)
	return &m, nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" || raw == "[]" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func encodeList(v []string) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

// CreateOrUpdate upserts the meal and rewrites its tag index rows. Callers
// wanting both writes to be atomic pass a transaction.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, m *models.Meal) error {
	foodItems, err := encodeList(m.FoodItems)
	if err != nil {
		return fmt.Errorf("encode food items of meal %s: %w", m.ID, err)
	}
	tags, err := encodeList(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags of meal %s: %w", m.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO preset_meals (id, name, description, food_items, tags, is_preset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			food_items = excluded.food_items,
			tags = excluded.tags,
			is_preset = excluded.is_preset,
			created_at = excluded.created_at
	`, m.ID, m.Name, m.Description, foodItems, tags, m.IsPreset, dbx.Timestamp(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save meal %s: %w", m.ID, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM preset_meal_tags WHERE meal_id = ?`, m.ID); err != nil {
		return fmt.Errorf("failed to reset tags of meal %s: %w", m.ID, err)
	}
	for _, tag := range m.Tags {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO preset_meal_tags (meal_id, tag) VALUES (?, ?)`,
			m.ID, strings.ToLower(tag))
		if err != nil {
			return fmt.Errorf("failed to index tag %q of meal %s: %w", tag, m.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Meal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM preset_meals AS m WHERE m.id = ?`, id)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal %s: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteRepository) list(ctx context.Context, what, query string, args ...any) ([]*models.Meal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	defer rows.Close()

	result := make([]*models.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Meal, error) {
	return r.list(ctx, "meals", `SELECT `+selectColumns+` FROM preset_meals AS m ORDER BY m.name`)
}

// GetPresets lists the shared catalog without the user's own meals.
func (r *SQLiteRepository) GetPresets(ctx context.Context) ([]*models.Meal, error) {
	return r.list(ctx, "preset meals", `SELECT `+selectColumns+` FROM preset_meals AS m WHERE m.is_preset = 1 ORDER BY m.name`)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) ([]*models.Meal, error) {
	return r.list(ctx, "meals named "+name,
		`SELECT `+selectColumns+` FROM preset_meals AS m WHERE m.name = ? ORDER BY m.id`, name)
}

func (r *SQLiteRepository) GetByTag(ctx context.Context, tag string) ([]*models.Meal, error) {
	return r.list(ctx, "meals tagged "+tag, `
		SELECT `+selectColumns+`
		FROM preset_meals AS m
		JOIN preset_meal_tags AS t ON t.meal_id = m.id
		WHERE t.tag = ?
		ORDER BY m.name`, strings.ToLower(tag))
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preset_meal_tags WHERE meal_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tags of meal %s: %w", id, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preset_meals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meal %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preset_meal_tags`); err != nil {
		return fmt.Errorf("failed to clear meal tags: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preset_meals`); err != nil {
		return fmt.Errorf("failed to clear meals: %w", err)
	}
	return nil
}
