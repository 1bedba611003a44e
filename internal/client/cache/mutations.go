package cache

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// The Queue* methods apply an optimistic change and record the matching
// operation in the same transaction, so a queued write is either fully
// visible and pending or not there at all.
//
// A temp menu id that was confirmed by the server in the meantime is
// resolved to the server id, both in the cached rows and in the queued
// operation.

// QueueCreateMenu stores the temporary menu m and queues its creation.
func (c *Cache) QueueCreateMenu(ctx context.Context, m *models.Menu, op models.CreateMenuOp) (*models.QueueItem, error) {
	return c.mutate(ctx, op, func(ctx context.Context, r *localstore.Repositories, _ string) error {
		return c.saveMenu(ctx, r, m)
	})
}

// QueueUpdateMenu applies op's patch to the cached menu, if any, and queues
// op. The patched menu is returned, or nil when the menu is not cached.
func (c *Cache) QueueUpdateMenu(ctx context.Context, op models.UpdateMenuOp) (*models.Menu, *models.QueueItem, error) {
	var updated *models.Menu
	item, err := c.mutate(ctx, op, func(ctx context.Context, r *localstore.Repositories, menuID string) error {
		cached, err := r.Menus.GetByID(ctx, menuID)
		if err != nil || cached == nil {
			return err
		}
		updated = op.Patch.Apply(cached, c.Now())
		return c.saveMenu(ctx, r, updated)
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, item, nil
}

// QueueDeleteMenu drops the cached menu with its entries and queues op.
func (c *Cache) QueueDeleteMenu(ctx context.Context, op models.DeleteMenuOp) (*models.QueueItem, error) {
	return c.mutate(ctx, op, func(ctx context.Context, r *localstore.Repositories, menuID string) error {
		return deleteMenu(ctx, r, menuID)
	})
}

// QueueUpsertEntry stores the optimistic entry e and queues op.
func (c *Cache) QueueUpsertEntry(ctx context.Context, e *models.MenuEntry, op models.UpsertEntryOp) (*models.QueueItem, error) {
	return c.mutate(ctx, op, func(ctx context.Context, r *localstore.Repositories, menuID string) error {
		e.MenuID = menuID
		return saveEntry(ctx, r, e)
	})
}

// QueueDeleteEntry drops the cached entry in op's slot and queues op.
func (c *Cache) QueueDeleteEntry(ctx context.Context, op models.DeleteEntryOp) (*models.QueueItem, error) {
	return c.mutate(ctx, op, func(ctx context.Context, r *localstore.Repositories, menuID string) error {
		key := op.Key
		key.MenuID = menuID
		return r.Entries.DeleteByNaturalKey(ctx, key)
	})
}

// mutate runs apply with the resolved menu id of op and queues the
// resolved op, in one transaction.
func (c *Cache) mutate(ctx context.Context, op models.Operation,
	apply func(ctx context.Context, r *localstore.Repositories, menuID string) error) (*models.QueueItem, error) {

	var item *models.QueueItem
	err := c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		op, menuID, err := resolveMenuID(ctx, r, op)
		if err != nil {
			return err
		}
		if err := apply(ctx, r, menuID); err != nil {
			return err
		}
		item, err = c.enqueue(ctx, r, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func resolveMenuID(ctx context.Context, r *localstore.Repositories, op models.Operation) (models.Operation, string, error) {
	menuID := models.MenuIDOf(op)
	if _, create := op.(models.CreateMenuOp); create || !common.IsTempID(menuID) {
		return op, menuID, nil
	}
	v, err := r.Metadata.Get(ctx, common.MetaMenuIDPrefix+menuID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", menuID, err)
	}
	if v == nil {
		return op, menuID, nil
	}
	op, _ = models.RemapMenuID(op, menuID, string(v))
	return op, string(v), nil
}

// ResolveMenuID returns the server id a temp menu id was confirmed as, or
// id itself.
func (c *Cache) ResolveMenuID(ctx context.Context, id string) (string, error) {
	if !common.IsTempID(id) {
		return id, nil
	}
	v, err := c.GetMetadata(ctx, common.MetaMenuIDPrefix+id)
	if err != nil || v == nil {
		return id, err
	}
	return string(v), nil
}
