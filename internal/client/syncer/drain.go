package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

// Drain runs one pass over the queue. ran is false when another drain holds
// the lock.
func (s *Synchronizer) Drain(ctx context.Context) (rep Report, ran bool) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, false
	}
	defer s.running.Store(false)

	s.refreshPresetMeals(ctx)

	items, err := s.cache.Queue(ctx)
	if err != nil {
		s.log.Warn(ctx, "cannot read sync queue", "err", err)
		rep.Interrupted = true
		return rep, true
	}

	pendingCreates := map[string]bool{}
	for _, it := range items {
		if op, ok := it.Op.(models.CreateMenuOp); ok {
			pendingCreates[op.TempID] = true
		}
	}
	remapped := map[string]string{}

	for _, it := range items {
		if ctx.Err() != nil || !s.conn.IsOnline() {
			rep.Interrupted = true
			break
		}
		rep.Processed++

		if it.Op == nil {
			s.abandonUndecodable(ctx, it, &rep)
			continue
		}

		op := it.Op
		if menuID := models.MenuIDOf(op); common.IsTempID(menuID) && op.Type() != models.OpCreateMenu {
			if to, ok := remapped[menuID]; ok {
				op, _ = models.RemapMenuID(op, menuID, to)
			} else if pendingCreates[menuID] {
				rep.Deferred++
				continue
			} else {
				s.fail(ctx, it, fmt.Errorf("menu %s was never created remotely", menuID), &rep)
				continue
			}
		}

		err := s.apply(ctx, it.ID, op, remapped)
		if err == nil {
			rep.Resolved++
			if c, ok := op.(models.CreateMenuOp); ok {
				delete(pendingCreates, c.TempID)
			}
			continue
		}
		s.fail(ctx, it, err, &rep)
	}

	if !rep.Interrupted {
		if err := s.cache.SetLastSyncTime(ctx, s.now()); err != nil {
			s.log.Warn(ctx, "cannot record last sync time", "err", err)
		}
	}
	s.afterDrain(rep)
	return rep, true
}

func (s *Synchronizer) refreshPresetMeals(ctx context.Context) {
	meals, err := s.remote.GetPresetMeals(ctx)
	if err != nil {
		s.log.Warn(ctx, "preset meal refresh failed", "err", err)
		return
	}
	if err := s.cache.SavePresetMeals(ctx, meals); err != nil {
		s.log.Warn(ctx, "cannot cache preset meals", "err", err)
	}
}

func (s *Synchronizer) apply(ctx context.Context, itemID string, op models.Operation, remapped map[string]string) error {
	switch op := op.(type) {
	case models.CreateMenuOp:
		m, err := s.remote.CreateMenu(ctx, op.Data)
		if err != nil {
			return err
		}
		if err := s.cache.ResolveCreate(ctx, itemID, op.TempID, m); err != nil {
			return s.resolveFailed(ctx, itemID, op, err)
		}
		remapped[op.TempID] = m.ID
		s.log.Info(ctx, "menu created remotely", "item_id", itemID, "menu_id", m.ID, "temp_id", op.TempID)

	case models.UpdateMenuOp:
		m, err := s.remote.UpdateMenu(ctx, op.MenuID, op.Patch)
		if err != nil {
			return err
		}
		if err := s.cache.ResolveMenu(ctx, itemID, m); err != nil {
			return s.resolveFailed(ctx, itemID, op, err)
		}

	case models.DeleteMenuOp:
		if err := s.remote.DeleteMenu(ctx, op.MenuID); err != nil {
			return err
		}
		if err := s.cache.ResolveDeleteMenu(ctx, itemID, op.MenuID); err != nil {
			return s.resolveFailed(ctx, itemID, op, err)
		}

	case models.UpsertEntryOp:
		e, err := s.remote.UpsertMenuEntry(ctx, op.Entry)
		if err != nil {
			return err
		}
		if err := s.cache.ResolveEntry(ctx, itemID, op.LocalID, e); err != nil {
			return s.resolveFailed(ctx, itemID, op, err)
		}

	case models.DeleteEntryOp:
		if err := s.remote.DeleteMenuEntry(ctx, op.Key); err != nil {
			return err
		}
		if err := s.cache.ResolveDeleteEntry(ctx, itemID, op.Key); err != nil {
			return s.resolveFailed(ctx, itemID, op, err)
		}

	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
	return nil
}

func (s *Synchronizer) resolveFailed(ctx context.Context, itemID string, op models.Operation, err error) error {
	s.log.Error(ctx, "applied remotely but not recorded locally", "item_id", itemID, "op", op.Type(), "err", err)
	return err
}

func (s *Synchronizer) fail(ctx context.Context, it *models.QueueItem, cause error, rep *Report) {
	attempts, abandoned, err := s.cache.BumpRetry(ctx, it.ID, s.maxRetries)
	if err != nil {
		s.log.Warn(ctx, "cannot record sync failure", "item_id", it.ID, "err", errors.Join(cause, err))
		rep.Retried++
		return
	}
	if abandoned {
		rep.Abandoned++
		s.log.Error(ctx, "sync item abandoned", "item_id", it.ID, "op", it.Op.Type(),
			"attempt", attempts, "err", fmt.Errorf("%w: %w", common.ErrSyncExhausted, cause))
		return
	}
	rep.Retried++
	s.log.Warn(ctx, "sync item failed", "item_id", it.ID, "op", it.Op.Type(), "attempt", attempts, "err", cause)
}

func (s *Synchronizer) abandonUndecodable(ctx context.Context, it *models.QueueItem, rep *Report) {
	if err := s.cache.Abandon(ctx, it.ID); err != nil {
		s.log.Warn(ctx, "cannot drop undecodable item", "item_id", it.ID, "err", err)
		return
	}
	rep.Abandoned++
	s.log.Error(ctx, "sync item abandoned", "item_id", it.ID,
		"err", fmt.Errorf("%w: undecodable payload", common.ErrSyncExhausted))
}
