package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
)

const mealColumns = `id::text, name, description, food_items::text, tags::text, is_preset, created_at`

func scanMeal(s scanner) (*models.Meal, error) {
	var (
		m               models.Meal
		foodItems, tags string
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Description, &foodItems, &tags, &m.IsPreset, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeList(foodItems, &m.FoodItems); err != nil {
		return nil, fmt.Errorf("decode food items: %w", err)
	}
	if err := decodeList(tags, &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &m, nil
}

func scanMeals(rows *sql.Rows) ([]*models.Meal, error) {
	defer rows.Close()

	result := make([]*models.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, remote.MapError(fmt.Errorf("scan meal: %w", err))
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.MapError(fmt.Errorf("iterate meals: %w", err))
	}
	return result, nil
}

// SearchMeals lists preset and custom meals by name. A non-empty query
// matches the name or the description, case-insensitively.
func (s *Service) SearchMeals(ctx context.Context, query string) ([]*models.Meal, error) {
	q := `SELECT ` + mealColumns + ` FROM menuapp_meals`
	var args []any
	if term := strings.TrimSpace(query); term != "" {
		q += ` WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+term+"%")
	}
	q += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("search meals %q: %w", query, err))
	}
	return scanMeals(rows)
}

func (s *Service) CreateMeal(ctx context.Context, in models.MealInput) (*models.Meal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO menuapp_meals (name, description, food_items, tags, is_preset)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, FALSE)
		RETURNING `+mealColumns,
		in.Name, in.Description, encodeList(in.FoodItems), encodeList(in.Tags))
	m, err := scanMeal(row)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("create meal: %w", err))
	}
	return m, nil
}

// UpdateMeal replaces a custom meal. Preset meals are read-only and
// report common.ErrNotFound.
func (s *Service) UpdateMeal(ctx context.Context, id string, in models.MealInput) (*models.Meal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE menuapp_meals
		SET name = $2, description = $3, food_items = $4::jsonb, tags = $5::jsonb
		WHERE id::text = $1 AND NOT is_preset
		RETURNING `+mealColumns,
		id, in.Name, in.Description, encodeList(in.FoodItems), encodeList(in.Tags))
	m, err := scanMeal(row)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("update meal %s: %w", id, err))
	}
	return m, nil
}

func (s *Service) DeleteMeal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menuapp_meals WHERE id::text = $1 AND NOT is_preset`, id)
	if err != nil {
		return remote.MapError(fmt.Errorf("delete meal %s: %w", id, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return remote.MapError(fmt.Errorf("delete meal %s: %w", id, sql.ErrNoRows))
	}
	return nil
}
