package meals

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

type Repository interface {
	CreateOrUpdate(ctx context.Context, m *models.Meal) error
	GetByID(ctx context.Context, id string) (*models.Meal, error)
	GetAll(ctx context.Context) ([]*models.Meal, error)
	GetPresets(ctx context.Context) ([]*models.Meal, error)
	GetByName(ctx context.Context, name string) ([]*models.Meal, error)
	GetByTag(ctx context.Context, tag string) ([]*models.Meal, error)
	DeleteByID(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}
