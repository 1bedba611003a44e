// Package services is the connectivity-aware read and write path used by
// the CLI. Reads go to the remote service first and fall back to the local
// cache; writes fall back to the sync queue.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

// OnlineChecker reports the current connectivity state.
type OnlineChecker interface {
	IsOnline() bool
}

// MenuService defines the menu operations available to the application.
//
// Reads never fail only because the network is down: an absent menu is
// returned as nil. Writes that could not be confirmed remotely are queued
// and reported with an error wrapping common.ErrPendingSync; the returned
// value is still the locally visible result.
type MenuService interface {
	GetMenu(ctx context.Context, id string) (*models.Menu, error)
	GetMenuByShortID(ctx context.Context, shortID string) (*models.Menu, error)
	GetMenuEntries(ctx context.Context, menuID string) ([]*models.MenuEntry, error)
	GetPresetMeals(ctx context.Context) ([]*models.Meal, error)
	SearchPresetMeals(ctx context.Context, query string) ([]*models.Meal, error)
	ListCachedMenus(ctx context.Context) ([]*models.Menu, error)

	CreateMenu(ctx context.Context, data models.CreateMenuData) (*models.Menu, error)
	UpdateMenu(ctx context.Context, id string, patch models.UpdateMenuData) (*models.Menu, error)
	DeleteMenu(ctx context.Context, id string) error
	UpsertEntry(ctx context.Context, in models.EntryInput) (*models.MenuEntry, error)
	DeleteEntry(ctx context.Context, key models.EntryKey) error
	AssignMeal(ctx context.Context, menuID string, dayIndex int, mealType models.MealType, mealID, notes string) (*models.MenuEntry, error)

	ImportMenu(ctx context.Context, shortID, editKey string) (*models.Menu, error)
	DownloadMenus(ctx context.Context) (int, error)

	// Public listing, stars and view counts exist only on the remote and
	// fail with common.ErrOffline while disconnected.
	DiscoverMenus(ctx context.Context, f models.DiscoverFilter) (*models.DiscoverPage, error)
	ToggleStar(ctx context.Context, menuID string) (models.StarResult, error)
	RecordView(ctx context.Context, menuID string) error

	// Custom meals are written online only and read from the cache when
	// the remote is unreachable.
	SearchMeals(ctx context.Context, query string) ([]*models.Meal, error)
	SaveMeal(ctx context.Context, id string, in models.MealInput) (*models.Meal, error)
	DeleteMeal(ctx context.Context, id string) error
}

type menuService struct {
	remote remote.Service
	cache  *cache.Cache
	online OnlineChecker
	log    logging.Logger

	// sessionFP stands in for the stored fingerprint without a local store.
	sessionFP string
}

// NewMenuService constructs a MenuService. A nil logger discards output.
func NewMenuService(r remote.Service, c *cache.Cache, online OnlineChecker, log logging.Logger) MenuService {
	if log == nil {
		log = logging.Discard()
	}
	return &menuService{remote: r, cache: c, online: online, log: log, sessionFP: uuid.NewString()}
}

// useRemote reports whether an operation on id should go to the remote
// service. Temporary ids only exist locally.
func (s *menuService) useRemote(id string) bool {
	return s.online.IsOnline() && !common.IsTempID(id)
}

// fill logs a failed read-through write. The remote result is returned
// regardless.
func (s *menuService) fill(ctx context.Context, what string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, common.ErrStorageUnavailable):
		s.log.Debug(ctx, "cache skipped", "what", what, "err", err)
	default:
		s.log.Warn(ctx, "cache write failed", "what", what, "err", err)
	}
}

// cacheRead treats a missing local store as an empty cache.
func cacheRead(err error) error {
	if errors.Is(err, common.ErrStorageUnavailable) {
		return nil
	}
	return err
}

// queued runs write, which applies the optimistic change and queues op in
// one transaction. It returns the pending-sync soft failure on success and
// a hard error when nothing was saved.
func (s *menuService) queued(ctx context.Context, op models.Operation, cause error, write func() error) error {
	if err := write(); err != nil {
		if cause != nil {
			return fmt.Errorf("%s not saved: %w", op.Type(), errors.Join(cause, err))
		}
		return fmt.Errorf("%s not saved: %w", op.Type(), err)
	}
	menuID := models.MenuIDOf(op)
	if cause != nil {
		s.log.Warn(ctx, "remote write failed, queued", "op", op.Type(), "menu_id", menuID, "err", cause)
	} else {
		s.log.Info(ctx, "offline write queued", "op", op.Type(), "menu_id", menuID)
	}
	if cause != nil {
		return fmt.Errorf("%w: %w", common.ErrPendingSync, cause)
	}
	return common.ErrPendingSync
}

// resolve maps a temp menu id the server has since confirmed to the server
// id. Without a local store id is returned unchanged.
func (s *menuService) resolve(ctx context.Context, id string) (string, error) {
	resolved, err := s.cache.ResolveMenuID(ctx, id)
	if err := cacheRead(err); err != nil {
		return "", err
	}
	return resolved, nil
}

// IsPending reports whether err only signals a queued write.
func IsPending(err error) bool {
	return errors.Is(err, common.ErrPendingSync)
}
