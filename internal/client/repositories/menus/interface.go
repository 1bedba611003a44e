package menus

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

type Repository interface {
	CreateOrUpdate(ctx context.Context, m *models.Menu) error
	GetByID(ctx context.Context, id string) (*models.Menu, error)
	GetByShortID(ctx context.Context, shortID string) (*models.Menu, error)
	GetAll(ctx context.Context) ([]*models.Menu, error)
	DeleteByID(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
