package cache

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Enqueue durably records op as a pending mutation.
func (c *Cache) Enqueue(ctx context.Context, op models.Operation) (*models.QueueItem, error) {
	var item *models.QueueItem
	err := c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		var err error
		item, err = c.enqueue(ctx, r, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Cache) enqueue(ctx context.Context, r *localstore.Repositories, op models.Operation) (*models.QueueItem, error) {
	payload, err := models.EncodeOperation(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Type(), err)
	}
	rec := &syncqueue.Record{
		ID:        c.newID(),
		Type:      string(op.Type()),
		Payload:   payload,
		Timestamp: c.Now(),
	}
	if err := r.Queue.Add(ctx, rec); err != nil {
		return nil, err
	}
	c.log.Debug(ctx, "mutation queued", "item_id", rec.ID, "op", rec.Type)
	return &models.QueueItem{ID: rec.ID, Op: op, Timestamp: rec.Timestamp}, nil
}

// Queue returns pending items oldest first. An item whose payload cannot be
// decoded is returned with a nil Op.
func (c *Cache) Queue(ctx context.Context) ([]*models.QueueItem, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	recs, err := r.Queue.GetAll(ctx)
	if err != nil {
		return nil, localstore.MapError(err)
	}
	items := make([]*models.QueueItem, 0, len(recs))
	for _, rec := range recs {
		op, err := models.DecodeOperation(models.OpType(rec.Type), rec.Payload)
		if err != nil {
			c.log.Warn(ctx, "undecodable queue item", "item_id", rec.ID, "op", rec.Type, "err", err)
		}
		items = append(items, &models.QueueItem{
			ID:         rec.ID,
			Op:         op,
			Timestamp:  rec.Timestamp,
			RetryCount: rec.RetryCount,
		})
	}
	return items, nil
}

func (c *Cache) QueueLength(ctx context.Context) (int, error) {
	r, err := c.repos()
	if err != nil {
		return 0, err
	}
	n, err := r.Queue.Count(ctx)
	return n, localstore.MapError(err)
}

func (c *Cache) RemoveQueueItem(ctx context.Context, itemID string) error {
	r, err := c.repos()
	if err != nil {
		return err
	}
	return localstore.MapError(r.Queue.Delete(ctx, itemID))
}

// BumpRetry increments the retry counter of an item and returns the new
// value. Once the counter reaches ceiling the item is removed, the
// abandoned counter is incremented and abandoned is true.
func (c *Cache) BumpRetry(ctx context.Context, itemID string, ceiling int) (retries int, abandoned bool, err error) {
	err = c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		rec, err := r.Queue.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("queue item %s: %w", itemID, common.ErrNotFound)
		}
		retries = rec.RetryCount + 1
		if retries < ceiling {
			return r.Queue.UpdateRetryCount(ctx, itemID, retries)
		}
		abandoned = true
		if err := r.Queue.Delete(ctx, itemID); err != nil {
			return err
		}
		return incAbandoned(ctx, r)
	})
	return retries, abandoned, err
}

// Abandon removes an item that can never succeed and counts it as
// abandoned.
func (c *Cache) Abandon(ctx context.Context, itemID string) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if err := r.Queue.Delete(ctx, itemID); err != nil {
			return err
		}
		return incAbandoned(ctx, r)
	})
}

// ResolveCreate confirms a CREATE_MENU item: the temporary row is replaced
// by the server row, entries and later queued mutations are repointed from
// tempID to the server id, and the item is removed. All in one transaction.
// The mapping is kept so writes still addressed to tempID land on the
// server id.
func (c *Cache) ResolveCreate(ctx context.Context, itemID, tempID string, menu *models.Menu) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if tempID != menu.ID {
			if err := r.Menus.DeleteByID(ctx, tempID); err != nil {
				return err
			}
		}
		if err := c.saveMenu(ctx, r, menu); err != nil {
			return err
		}
		if tempID != menu.ID {
			if err := r.Entries.ReassignMenu(ctx, tempID, menu.ID); err != nil {
				return err
			}
			if err := remapQueued(ctx, r, itemID, tempID, menu.ID); err != nil {
				return err
			}
			if err := r.Metadata.Set(ctx, common.MetaMenuIDPrefix+tempID, []byte(menu.ID)); err != nil {
				return err
			}
		}
		return r.Queue.Delete(ctx, itemID)
	})
}

func remapQueued(ctx context.Context, r *localstore.Repositories, skipID, from, to string) error {
	recs, err := r.Queue.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.ID == skipID {
			continue
		}
		op, err := models.DecodeOperation(models.OpType(rec.Type), rec.Payload)
		if err != nil {
			continue
		}
		op, changed := models.RemapMenuID(op, from, to)
		if !changed {
			continue
		}
		payload, err := models.EncodeOperation(op)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op.Type(), err)
		}
		if err := r.Queue.UpdatePayload(ctx, rec.ID, payload); err != nil {
			return err
		}
	}
	return nil
}

// ResolveMenu confirms an UPDATE_MENU item with the server row.
func (c *Cache) ResolveMenu(ctx context.Context, itemID string, menu *models.Menu) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if err := c.saveMenu(ctx, r, menu); err != nil {
			return err
		}
		return r.Queue.Delete(ctx, itemID)
	})
}

// ResolveDeleteMenu confirms a DELETE_MENU item.
func (c *Cache) ResolveDeleteMenu(ctx context.Context, itemID, menuID string) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if err := deleteMenu(ctx, r, menuID); err != nil {
			return err
		}
		return r.Queue.Delete(ctx, itemID)
	})
}

// ResolveEntry confirms an UPSERT_ENTRY item. The optimistic row stored
// under localID is replaced by the server row.
func (c *Cache) ResolveEntry(ctx context.Context, itemID, localID string, entry *models.MenuEntry) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if localID != "" && localID != entry.ID {
			if err := r.Entries.DeleteByID(ctx, localID); err != nil {
				return err
			}
		}
		if err := saveEntry(ctx, r, entry); err != nil {
			return err
		}
		return r.Queue.Delete(ctx, itemID)
	})
}

// ResolveDeleteEntry confirms a DELETE_ENTRY item.
func (c *Cache) ResolveDeleteEntry(ctx context.Context, itemID string, key models.EntryKey) error {
	return c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		if err := r.Entries.DeleteByNaturalKey(ctx, key); err != nil {
			return err
		}
		return r.Queue.Delete(ctx, itemID)
	})
}
