package cache

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

// SavePresetMeals stores meals in one transaction. Custom meals go through
// the same table and keep IsPreset false.
func (c *Cache) SavePresetMeals(ctx context.Context, meals []*models.Meal) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		for _, m := range meals {
			if err := r.Meals.CreateOrUpdate(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPresetMeals returns the shared catalog only.
func (c *Cache) GetPresetMeals(ctx context.Context) ([]*models.Meal, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	m, err := r.Meals.GetPresets(ctx)
	return m, localstore.MapError(err)
}

func (c *Cache) GetPresetMealsByTag(ctx context.Context, tag string) ([]*models.Meal, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	all, err := r.Meals.GetByTag(ctx, tag)
	if err != nil {
		return nil, localstore.MapError(err)
	}
	presets := make([]*models.Meal, 0, len(all))
	for _, m := range all {
		if m.IsPreset {
			presets = append(presets, m)
		}
	}
	return presets, nil
}

// SearchPresetMeals filters the whole catalog in memory.
func (c *Cache) SearchPresetMeals(ctx context.Context, query string) ([]*models.Meal, error) {
	all, err := c.GetPresetMeals(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterMeals(all, query), nil
}

// SaveMeal stores a single meal, preset or custom.
func (c *Cache) SaveMeal(ctx context.Context, m *models.Meal) error {
	return c.SavePresetMeals(ctx, []*models.Meal{m})
}

func (c *Cache) DeleteMeal(ctx context.Context, id string) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		return r.Meals.DeleteByID(ctx, id)
	})
}

// GetMeal returns the cached meal or nil.
func (c *Cache) GetMeal(ctx context.Context, id string) (*models.Meal, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	m, err := r.Meals.GetByID(ctx, id)
	return m, localstore.MapError(err)
}

// SearchMeals filters preset and custom meals alike.
func (c *Cache) SearchMeals(ctx context.Context, query string) ([]*models.Meal, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	all, err := r.Meals.GetAll(ctx)
	if err != nil {
		return nil, localstore.MapError(err)
	}
	return models.FilterMeals(all, query), nil
}
