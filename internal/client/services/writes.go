package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

const localShortIDLen = 6

// rejected reports remote failures that queueing cannot fix.
func rejected(err error) bool {
	return errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound)
}

func (s *menuService) CreateMenu(ctx context.Context, data models.CreateMenuData) (*models.Menu, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	var cause error
	if s.online.IsOnline() {
		m, err := s.remote.CreateMenu(ctx, data)
		if err == nil {
			s.fill(ctx, "menu", s.cache.SaveMenu(ctx, m))
			return m, nil
		}
		if rejected(err) {
			return nil, err
		}
		cause = err
	}

	shortID, err := common.RandomBase36(localShortIDLen)
	if err != nil {
		return nil, fmt.Errorf("short id: %w", err)
	}
	m := data.Menu(common.NewTempID(), shortID, s.cache.Now())
	op := models.CreateMenuOp{TempID: m.ID, Data: data}
	err = s.queued(ctx, op, cause, func() error {
		_, err := s.cache.QueueCreateMenu(ctx, m, op)
		return err
	})
	if !IsPending(err) {
		return nil, err
	}
	return m, err
}

func (s *menuService) UpdateMenu(ctx context.Context, id string, patch models.UpdateMenuData) (*models.Menu, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}

	id, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	var cause error
	if s.useRemote(id) {
		m, err := s.remote.UpdateMenu(ctx, id, patch)
		if err == nil {
			s.fill(ctx, "menu", s.cache.SaveMenu(ctx, m))
			return m, nil
		}
		if rejected(err) {
			return nil, err
		}
		cause = err
	}

	if cause == nil {
		cached, err := s.cache.GetMenu(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update menu not saved: %w", err)
		}
		if cached == nil {
			return nil, fmt.Errorf("menu %s not cached: %w", id, common.ErrNotFound)
		}
	}

	op := models.UpdateMenuOp{MenuID: id, Patch: patch}
	var updated *models.Menu
	err = s.queued(ctx, op, cause, func() error {
		var err error
		updated, _, err = s.cache.QueueUpdateMenu(ctx, op)
		return err
	})
	if !IsPending(err) {
		return nil, err
	}
	return updated, err
}

func (s *menuService) DeleteMenu(ctx context.Context, id string) error {
	id, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}

	var cause error
	if s.useRemote(id) {
		err := s.remote.DeleteMenu(ctx, id)
		if err == nil {
			s.fill(ctx, "menu", s.cache.DeleteMenu(ctx, id))
			return nil
		}
		if rejected(err) {
			return err
		}
		cause = err
	}

	op := models.DeleteMenuOp{MenuID: id}
	return s.queued(ctx, op, cause, func() error {
		_, err := s.cache.QueueDeleteMenu(ctx, op)
		return err
	})
}

// UpsertEntry assigns a meal to a slot. The date must fall inside the menu
// period.
func (s *menuService) UpsertEntry(ctx context.Context, in models.EntryInput) (*models.MenuEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.menuFor(ctx, in.MenuID)
	if err != nil {
		return nil, err
	}
	if _, err := m.DayIndex(in.Date); err != nil {
		return nil, err
	}
	return s.upsert(ctx, in)
}

// AssignMeal is UpsertEntry addressed by day index instead of date.
func (s *menuService) AssignMeal(ctx context.Context, menuID string, dayIndex int, mealType models.MealType, mealID, notes string) (*models.MenuEntry, error) {
	m, err := s.menuFor(ctx, menuID)
	if err != nil {
		return nil, err
	}
	date, err := m.DateForDay(dayIndex)
	if err != nil {
		return nil, err
	}
	in := models.EntryInput{MenuID: m.ID, MealID: mealID, Date: date, MealType: mealType, Notes: notes}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.upsert(ctx, in)
}

func (s *menuService) upsert(ctx context.Context, in models.EntryInput) (*models.MenuEntry, error) {
	var cause error
	if s.useRemote(in.MenuID) {
		e, err := s.remote.UpsertMenuEntry(ctx, in)
		if err == nil {
			s.fill(ctx, "entries", s.cache.SaveMenuEntries(ctx, []*models.MenuEntry{e}))
			return e, nil
		}
		if rejected(err) {
			return nil, err
		}
		cause = err
	}

	e := in.Entry(common.NewTempID(), s.cache.Now())
	op := models.UpsertEntryOp{LocalID: e.ID, Entry: in}
	err := s.queued(ctx, op, cause, func() error {
		_, err := s.cache.QueueUpsertEntry(ctx, e, op)
		return err
	})
	if !IsPending(err) {
		return nil, err
	}
	return e, err
}

func (s *menuService) DeleteEntry(ctx context.Context, key models.EntryKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	menuID, err := s.resolve(ctx, key.MenuID)
	if err != nil {
		return err
	}
	key.MenuID = menuID

	var cause error
	if s.useRemote(key.MenuID) {
		err := s.remote.DeleteMenuEntry(ctx, key)
		if err == nil {
			s.fill(ctx, "entries", s.cache.DeleteMenuEntry(ctx, key))
			return nil
		}
		if rejected(err) {
			return err
		}
		cause = err
	}

	op := models.DeleteEntryOp{Key: key}
	return s.queued(ctx, op, cause, func() error {
		_, err := s.cache.QueueDeleteEntry(ctx, op)
		return err
	})
}

// menuFor resolves a menu from the cache, then through the read path.
func (s *menuService) menuFor(ctx context.Context, id string) (*models.Menu, error) {
	id, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.cache.GetMenu(ctx, id)
	if err := cacheRead(err); err != nil {
		return nil, err
	}
	if m == nil {
		if m, err = s.GetMenu(ctx, id); err != nil {
			return nil, err
		}
	}
	if m == nil {
		return nil, fmt.Errorf("menu %s: %w", id, common.ErrNotFound)
	}
	return m, nil
}
