package services

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// SearchMeals lists preset and custom meals matching query, remote first.
func (s *menuService) SearchMeals(ctx context.Context, query string) ([]*models.Meal, error) {
	if s.online.IsOnline() {
		meals, err := s.remote.SearchMeals(ctx, query)
		if err == nil {
			s.fill(ctx, "meals", s.cache.SavePresetMeals(ctx, meals))
			return meals, nil
		}
		s.log.Warn(ctx, "remote read failed, using cache", "what", "meals", "err", err)
	}
	meals, err := s.cache.SearchMeals(ctx, query)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []*models.Meal{}
	}
	return meals, nil
}

// SaveMeal creates a custom meal when id is empty and replaces it
// otherwise.
func (s *menuService) SaveMeal(ctx context.Context, id string, in models.MealInput) (*models.Meal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !s.online.IsOnline() {
		return nil, common.ErrOffline
	}

	var (
		m   *models.Meal
		err error
	)
	if id == "" {
		m, err = s.remote.CreateMeal(ctx, in)
	} else {
		m, err = s.remote.UpdateMeal(ctx, id, in)
	}
	if err != nil {
		return nil, err
	}
	m.IsPreset = false
	s.fill(ctx, "meal", s.cache.SaveMeal(ctx, m))
	s.log.Info(ctx, "custom meal saved", "meal_id", m.ID, "created", id == "")
	return m, nil
}

func (s *menuService) DeleteMeal(ctx context.Context, id string) error {
	if !s.online.IsOnline() {
		return common.ErrOffline
	}
	if err := s.remote.DeleteMeal(ctx, id); err != nil {
		return err
	}
	s.fill(ctx, "meal", s.cache.DeleteMeal(ctx, id))
	return nil
}
