package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// ImportMenu makes a shared menu available offline. When editKey is given
// it must match the menu's edit key.
func (s *menuService) ImportMenu(ctx context.Context, shortID, editKey string) (*models.Menu, error) {
	m, err := s.GetMenuByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("menu %s: %w", shortID, common.ErrNotFound)
	}
	if editKey != "" && subtle.ConstantTimeCompare([]byte(editKey), []byte(m.EditKey)) != 1 {
		return nil, common.ErrInvalidEditKey
	}
	if _, err := s.GetMenuEntries(ctx, m.ID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "menu imported", "menu_id", m.ID, "short_id", m.ShortID, "editable", editKey != "")
	return m, nil
}

// DownloadMenus refreshes every cached menu and its entries from the remote
// service and returns how many were refreshed. Menus with queued changes
// and menus not created remotely yet are left alone. A menu deleted
// remotely is dropped from the cache.
func (s *menuService) DownloadMenus(ctx context.Context) (int, error) {
	if !s.online.IsOnline() {
		return 0, common.ErrOffline
	}
	menus, err := s.cache.GetAllMenus(ctx)
	if err != nil {
		return 0, err
	}
	pending, err := s.pendingMenus(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	n := 0
	for _, m := range menus {
		if m.IsLocal() || pending[m.ID] {
			continue
		}
		found, err := s.download(ctx, m.ID)
		if err != nil {
			s.log.Warn(ctx, "menu download failed", "menu_id", m.ID, "err", err)
			errs = append(errs, fmt.Errorf("menu %s: %w", m.ID, err))
			continue
		}
		if found {
			n++
		}
	}

	if err := s.cache.SetLastSyncTime(ctx, s.cache.Now()); err != nil {
		errs = append(errs, err)
	}
	return n, errors.Join(errs...)
}

func (s *menuService) download(ctx context.Context, id string) (bool, error) {
	fresh, err := s.remote.GetMenuByID(ctx, id)
	if err != nil {
		return false, err
	}
	if fresh == nil {
		s.log.Info(ctx, "menu deleted remotely, dropping", "menu_id", id)
		return false, s.cache.DeleteMenu(ctx, id)
	}
	entries, err := s.remote.GetMenuEntries(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.cache.SaveMenu(ctx, fresh); err != nil {
		return false, err
	}
	return true, s.cache.ReplaceMenuEntries(ctx, id, entries)
}

func (s *menuService) pendingMenus(ctx context.Context) (map[string]bool, error) {
	items, err := s.cache.Queue(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Op != nil {
			out[models.MenuIDOf(it.Op)] = true
		}
	}
	return out, nil
}
