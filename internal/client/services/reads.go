package services

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

func (s *menuService) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	if s.useRemote(id) {
		m, err := s.remote.GetMenuByID(ctx, id)
		if err == nil && m != nil {
			s.fill(ctx, "menu", s.cache.SaveMenu(ctx, m))
			return m, nil
		}
		if err != nil {
			s.log.Warn(ctx, "remote read failed, using cache", "menu_id", id, "err", err)
		}
	}
	m, err := s.cache.GetMenu(ctx, id)
	return m, cacheRead(err)
}

func (s *menuService) GetMenuByShortID(ctx context.Context, shortID string) (*models.Menu, error) {
	if s.online.IsOnline() {
		m, err := s.remote.GetMenuByShortID(ctx, shortID)
		if err == nil && m != nil {
			s.fill(ctx, "menu", s.cache.SaveMenu(ctx, m))
			return m, nil
		}
		if err != nil {
			s.log.Warn(ctx, "remote read failed, using cache", "short_id", shortID, "err", err)
		}
	}
	m, err := s.cache.GetMenuByShortID(ctx, shortID)
	return m, cacheRead(err)
}

func (s *menuService) GetMenuEntries(ctx context.Context, menuID string) ([]*models.MenuEntry, error) {
	if s.useRemote(menuID) {
		entries, err := s.remote.GetMenuEntries(ctx, menuID)
		if err == nil {
			s.fill(ctx, "entries", s.cache.SaveMenuEntries(ctx, entries))
			return entries, nil
		}
		s.log.Warn(ctx, "remote read failed, using cache", "menu_id", menuID, "err", err)
	}
	entries, err := s.cache.GetMenuEntries(ctx, menuID)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.MenuEntry{}
	}
	return entries, nil
}

func (s *menuService) GetPresetMeals(ctx context.Context) ([]*models.Meal, error) {
	if s.online.IsOnline() {
		meals, err := s.remote.GetPresetMeals(ctx)
		if err == nil {
			s.fill(ctx, "meals", s.cache.SavePresetMeals(ctx, meals))
			return meals, nil
		}
		s.log.Warn(ctx, "remote read failed, using cache", "what", "preset meals", "err", err)
	}
	meals, err := s.cache.GetPresetMeals(ctx)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []*models.Meal{}
	}
	return meals, nil
}

// SearchPresetMeals matches cached preset meals by name, description or
// tag. The remote list is fetched and filtered only when nothing is cached.
func (s *menuService) SearchPresetMeals(ctx context.Context, query string) ([]*models.Meal, error) {
	cached, err := s.cache.GetPresetMeals(ctx)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		meals, err := s.cache.SearchPresetMeals(ctx, query)
		if err != nil {
			return nil, err
		}
		if meals == nil {
			meals = []*models.Meal{}
		}
		return meals, nil
	}

	meals, err := s.GetPresetMeals(ctx)
	if err != nil {
		return nil, err
	}
	return models.FilterMeals(meals, query), nil
}

// ListCachedMenus returns every menu available offline.
func (s *menuService) ListCachedMenus(ctx context.Context) ([]*models.Menu, error) {
	menus, err := s.cache.GetAllMenus(ctx)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if menus == nil {
		menus = []*models.Menu{}
	}
	return menus, nil
}
