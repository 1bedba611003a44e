package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// fingerprint returns the id stars are recorded under.
func (s *menuService) fingerprint(ctx context.Context) (string, error) {
	fp, err := s.cache.Fingerprint(ctx)
	if errors.Is(err, common.ErrStorageUnavailable) {
		return s.sessionFP, nil
	}
	return fp, err
}

func (s *menuService) DiscoverMenus(ctx context.Context, f models.DiscoverFilter) (*models.DiscoverPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if !s.online.IsOnline() {
		return nil, common.ErrOffline
	}
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	return s.remote.DiscoverMenus(ctx, f.Normalize(), fp)
}

// ToggleStar stars or unstars a menu for this install and keeps the cached
// copy's star count in step.
func (s *menuService) ToggleStar(ctx context.Context, menuID string) (models.StarResult, error) {
	id, err := s.resolve(ctx, menuID)
	if err != nil {
		return models.StarResult{}, err
	}
	if common.IsTempID(id) {
		return models.StarResult{}, fmt.Errorf("%w: menu %s is not synced yet", common.ErrValidation, menuID)
	}
	if !s.online.IsOnline() {
		return models.StarResult{}, common.ErrOffline
	}
	fp, err := s.fingerprint(ctx)
	if err != nil {
		return models.StarResult{}, err
	}
	res, err := s.remote.ToggleMenuStar(ctx, id, fp)
	if err != nil {
		return models.StarResult{}, err
	}

	cached, err := s.cache.GetMenu(ctx, id)
	if err := cacheRead(err); err != nil {
		s.log.Warn(ctx, "cache read failed", "menu_id", id, "err", err)
	} else if cached != nil {
		cached.StarCount = res.StarCount
		s.fill(ctx, "menu", s.cache.SaveMenu(ctx, cached))
	}
	s.log.Info(ctx, "menu star toggled", "menu_id", id, "starred", res.Starred)
	return res, nil
}

// RecordView counts one view of a synced menu. Local-only menus have no
// remote counter and are ignored.
func (s *menuService) RecordView(ctx context.Context, menuID string) error {
	id, err := s.resolve(ctx, menuID)
	if err != nil {
		return err
	}
	if common.IsTempID(id) {
		return nil
	}
	if !s.online.IsOnline() {
		return common.ErrOffline
	}
	return s.remote.IncrementViewCount(ctx, id)
}
