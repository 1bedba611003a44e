package cache

import (
	"context"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
)

// SaveMenuEntries upserts entries in one transaction. An entry occupying
// the same (menu, date, meal type) slot under another id is replaced.
func (c *Cache) SaveMenuEntries(ctx context.Context, entries []*models.MenuEntry) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		for _, e := range entries {
			if err := saveEntry(ctx, r, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveEntry(ctx context.Context, r *localstore.Repositories, e *models.MenuEntry) error {
	existing, err := r.Entries.GetByNaturalKey(ctx, e.Key())
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != e.ID {
		if err := r.Entries.DeleteByID(ctx, existing.ID); err != nil {
			return err
		}
	}
	return r.Entries.CreateOrUpdate(ctx, e)
}

// ReplaceMenuEntries makes entries the complete cached set of menuID.
func (c *Cache) ReplaceMenuEntries(ctx context.Context, menuID string, entries []*models.MenuEntry) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if err := r.Entries.DeleteByMenuID(ctx, menuID); err != nil {
			return err
		}
		for _, e := range entries {
			if err := saveEntry(ctx, r, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) GetMenuEntries(ctx context.Context, menuID string) ([]*models.MenuEntry, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	e, err := r.Entries.GetByMenuID(ctx, menuID)
	return e, localstore.MapError(err)
}

// GetMenuEntry returns the entry in the given slot or nil.
func (c *Cache) GetMenuEntry(ctx context.Context, key models.EntryKey) (*models.MenuEntry, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	e, err := r.Entries.GetByNaturalKey(ctx, key)
	return e, localstore.MapError(err)
}

func (c *Cache) DeleteMenuEntry(ctx context.Context, key models.EntryKey) error {
	r, err := c.repos()
	if err != nil {
		return err
	}
	return localstore.MapError(r.Entries.DeleteByNaturalKey(ctx, key))
}
