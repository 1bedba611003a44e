package cache

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

// SaveMenu upserts m by id and stamps LastSynced.
func (c *Cache) SaveMenu(ctx context.Context, m *models.Menu) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		return c.saveMenu(ctx, r, m)
	})
}

func (c *Cache) saveMenu(ctx context.Context, r *localstore.Repositories, m *models.Menu) error {
	m.Normalize()
	m.LastSynced = c.Now()
	return r.Menus.CreateOrUpdate(ctx, m)
}

// GetMenu returns the cached menu or nil.
func (c *Cache) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	m, err := r.Menus.GetByID(ctx, id)
	return m, localstore.MapError(err)
}

func (c *Cache) GetMenuByShortID(ctx context.Context, shortID string) (*models.Menu, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	m, err := r.Menus.GetByShortID(ctx, shortID)
	return m, localstore.MapError(err)
}

func (c *Cache) GetAllMenus(ctx context.Context) ([]*models.Menu, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	m, err := r.Menus.GetAll(ctx)
	return m, localstore.MapError(err)
}

// DeleteMenu removes the menu and its entries in one transaction.
func (c *Cache) DeleteMenu(ctx context.Context, id string) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		return deleteMenu(ctx, r, id)
	})
}

func deleteMenu(ctx context.Context, r *localstore.Repositories, id string) error {
	if err := r.Entries.DeleteByMenuID(ctx, id); err != nil {
		return err
	}
	return r.Menus.DeleteByID(ctx, id)
}
