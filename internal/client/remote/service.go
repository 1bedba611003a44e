// Package remote defines the contract of the hosted meal planner backend as
// consumed by the client, and the classification of its failures.
package remote

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

// Service is the remote source of truth. Lookups of absent menus return
// (nil, nil).
type Service interface {
	CreateMenu(ctx context.Context, data models.CreateMenuData) (*models.Menu, error)
	UpdateMenu(ctx context.Context, id string, patch models.UpdateMenuData) (*models.Menu, error)
	DeleteMenu(ctx context.Context, id string) error
	GetMenuByID(ctx context.Context, id string) (*models.Menu, error)
	GetMenuByShortID(ctx context.Context, shortID string) (*models.Menu, error)

	GetMenuEntries(ctx context.Context, menuID string) ([]*models.MenuEntry, error)
	UpsertMenuEntry(ctx context.Context, in models.EntryInput) (*models.MenuEntry, error)
	DeleteMenuEntry(ctx context.Context, key models.EntryKey) error

	GetPresetMeals(ctx context.Context) ([]*models.Meal, error)
	// SearchMeals lists preset and custom meals whose name or description
	// contains query; an empty query lists them all.
	SearchMeals(ctx context.Context, query string) ([]*models.Meal, error)
	CreateMeal(ctx context.Context, in models.MealInput) (*models.Meal, error)
	UpdateMeal(ctx context.Context, id string, in models.MealInput) (*models.Meal, error)
	DeleteMeal(ctx context.Context, id string) error

	// DiscoverMenus lists discoverable menus. Starred is reported for the
	// client identified by fingerprint.
	DiscoverMenus(ctx context.Context, f models.DiscoverFilter, fingerprint string) (*models.DiscoverPage, error)
	ToggleMenuStar(ctx context.Context, menuID, fingerprint string) (models.StarResult, error)
	IncrementViewCount(ctx context.Context, menuID string) error
}
