package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

func (c *Cache) SetMetadata(ctx context.Context, key string, value []byte) error {
	r, err := c.repos()
	if err != nil {
		return err
	}
	return localstore.MapError(r.Metadata.Set(ctx, key, value))
}

// GetMetadata returns nil for an absent key.
func (c *Cache) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	r, err := c.repos()
	if err != nil {
		return nil, err
	}
	v, err := r.Metadata.Get(ctx, key)
	return v, localstore.MapError(err)
}

// LastSyncTime returns the zero time when no sync has completed yet.
func (c *Cache) LastSyncTime(ctx context.Context) (time.Time, error) {
	v, err := c.GetMetadata(ctx, common.MetaLastSyncTime)
	if err != nil || v == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (c *Cache) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return c.SetMetadata(ctx, common.MetaLastSyncTime, []byte(t.UTC().Format(time.RFC3339Nano)))
}

// AbandonedCount is the number of queue items dropped after exhausting
// their retries since the last reset.
func (c *Cache) AbandonedCount(ctx context.Context) (int, error) {
	r, err := c.repos()
	if err != nil {
		return 0, err
	}
	n, err := readCount(ctx, r)
	return n, localstore.MapError(err)
}

func (c *Cache) IncAbandoned(ctx context.Context) error {
	return c.inTx(ctx, incAbandoned)
}

func readCount(ctx context.Context, r *localstore.Repositories) (int, error) {
	v, err := r.Metadata.Get(ctx, common.MetaAbandonedJobs)
	if err != nil || v == nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func incAbandoned(ctx context.Context, r *localstore.Repositories) error {
	n, err := readCount(ctx, r)
	if err != nil {
		return err
	}
	return r.Metadata.Set(ctx, common.MetaAbandonedJobs, []byte(strconv.Itoa(n+1)))
}

// Fingerprint returns the id this install stars menus under, creating
// and storing it on first use.
func (c *Cache) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	err := c.inTx(ctx, func(ctx context.Context, r *localstore.Repositories) error {
		v, err := r.Metadata.Get(ctx, common.MetaUserFingerprint)
		if err != nil {
			return err
		}
		if len(v) > 0 {
			fp = string(v)
			return nil
		}
		fp = c.newID()
		return r.Metadata.Set(ctx, common.MetaUserFingerprint, []byte(fp))
	})
	if err != nil {
		return "", err
	}
	return fp, nil
}
