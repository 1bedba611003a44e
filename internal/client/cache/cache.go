// Package cache is the typed access layer over the local store. It is the
// only code that reads or writes cached rows and queued mutations.
//
// A Cache built without a store answers every call with
// common.ErrStorageUnavailable, which lets the application keep running in
// network-only mode.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

type Cache struct {
	store *localstore.Store
	now   func() time.Time
	newID func() string
	log   logging.Logger
}

type Option func(*Cache)

// WithClock sets the clock used for lastSynced stamps and queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithIDGenerator sets the generator of queue item ids.
func WithIDGenerator(f func() string) Option {
	return func(c *Cache) { c.newID = f }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New returns a cache over store. store may be nil.
func New(store *localstore.Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Available reports whether a local store backs the cache.
func (c *Cache) Available() bool {
	return c != nil && c.store != nil
}

// Now exposes the cache clock so callers stamp rows consistently.
func (c *Cache) Now() time.Time {
	return c.now().UTC()
}

func (c *Cache) repos() (*localstore.Repositories, error) {
	if !c.Available() {
		return nil, common.ErrStorageUnavailable
	}
	return c.store.Repos(), nil
}

func (c *Cache) inTx(ctx context.Context, fn func(ctx context.Context, r *localstore.Repositories) error) error {
	if !c.Available() {
		return common.ErrStorageUnavailable
	}
	return c.store.InTx(ctx, fn)
}

// ClearAll wipes every collection. It is meant for a user-initiated reset
// only.
func (c *Cache) ClearAll(ctx context.Context) error {
	if !c.Available() {
		return common.ErrStorageUnavailable
	}
	return c.store.ClearAll(ctx)
}
