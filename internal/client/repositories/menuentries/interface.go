package menuentries

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

type Repository interface {
	CreateOrUpdate(ctx context.Context, e *models.MenuEntry) error
	GetByID(ctx context.Context, id string) (*models.MenuEntry, error)
	GetByMenuID(ctx context.Context, menuID string) ([]*models.MenuEntry, error)
	GetByNaturalKey(ctx context.Context, key models.EntryKey) (*models.MenuEntry, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByNaturalKey(ctx context.Context, key models.EntryKey) error
	DeleteByMenuID(ctx context.Context, menuID string) error
	ReassignMenu(ctx context.Context, from, to string) error
	Clear(ctx context.Context) error
}
