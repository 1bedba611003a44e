package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Unavailable is the remote used when no backend is configured. Every call
// fails with common.ErrNetworkUnavailable, so the client runs on its cache.
type Unavailable struct{}

var _ Service = Unavailable{}

var errNoRemote = fmt.Errorf("%w: no remote configured", common.ErrNetworkUnavailable)

func (Unavailable) PingContext(context.Context) error { return errNoRemote }

func (Unavailable) CreateMenu(context.Context, models.CreateMenuData) (*models.Menu, error) {
	return nil, errNoRemote
}

func (Unavailable) UpdateMenu(context.Context, string, models.UpdateMenuData) (*models.Menu, error) {
	return nil, errNoRemote
}

func (Unavailable) DeleteMenu(context.Context, string) error { return errNoRemote }

func (Unavailable) GetMenuByID(context.Context, string) (*models.Menu, error) {
	return nil, errNoRemote
}

func (Unavailable) GetMenuByShortID(context.Context, string) (*models.Menu, error) {
	return nil, errNoRemote
}

func (Unavailable) GetMenuEntries(context.Context, string) ([]*models.MenuEntry, error) {
	return nil, errNoRemote
}

func (Unavailable) UpsertMenuEntry(context.Context, models.EntryInput) (*models.MenuEntry, error) {
	return nil, errNoRemote
}

func (Unavailable) DeleteMenuEntry(context.Context, models.EntryKey) error { return errNoRemote }

func (Unavailable) GetPresetMeals(context.Context) ([]*models.Meal, error) {
	return nil, errNoRemote
}

func (Unavailable) SearchMeals(context.Context, string) ([]*models.Meal, error) {
	return nil, errNoRemote
}

func (Unavailable) CreateMeal(context.Context, models.MealInput) (*models.Meal, error) {
	return nil, errNoRemote
}

func (Unavailable) UpdateMeal(context.Context, string, models.MealInput) (*models.Meal, error) {
	return nil, errNoRemote
}

func (Unavailable) DeleteMeal(context.Context, string) error { return errNoRemote }

func (Unavailable) DiscoverMenus(context.Context, models.DiscoverFilter, string) (*models.DiscoverPage, error) {
	return nil, errNoRemote
}

func (Unavailable) ToggleMenuStar(context.Context, string, string) (models.StarResult, error) {
	return models.StarResult{}, errNoRemote
}

func (Unavailable) IncrementViewCount(context.Context, string) error { return errNoRemote }
