package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote/remotetest"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	cache  *cache.Cache
	remote *remotetest.Fake
	online *remotetest.Online
	sync   *Synchronizer
	logs   *lockedBuffer
	clock  time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{
		remote: remotetest.New(),
		online: remotetest.NewOnline(true),
		logs:   &lockedBuffer{},
		clock:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	n := 0
	f.cache = cache.New(s,
		cache.WithClock(func() time.Time { return f.clock }),
		cache.WithIDGenerator(func() string { n++; return fmt.Sprintf("q%03d", n) }))

	base := []Option{
		WithLogger(logging.NewTextLogger(f.logs, "debug")),
		WithClock(func() time.Time { return f.clock }),
	}
	f.sync = New(f.cache, f.remote, f.online, append(base, opts...)...)
	t.Cleanup(f.sync.Close)
	return f
}

func (f *fixture) enqueue(t *testing.T, op models.Operation) *models.QueueItem {
	t.Helper()
	it, err := f.cache.Enqueue(context.Background(), op)
	require.NoError(t, err)
	f.clock = f.clock.Add(time.Second)
	return it
}

func (f *fixture) queueLen(t *testing.T) int {
	t.Helper()
	n, err := f.cache.QueueLength(context.Background())
	require.NoError(t, err)
	return n
}

func TestDrain_FIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.PutMenu(&models.Menu{ID: "m1", ShortID: "s1", Name: "A", PeriodWeeks: 1})

	name := "B"
	f.enqueue(t, models.UpdateMenuOp{MenuID: "m1", Patch: models.UpdateMenuData{Name: &name}})
	f.enqueue(t, models.DeleteMenuOp{MenuID: "m1"})

	rep, ran := f.sync.Drain(ctx)
	require.True(t, ran)
	require.Equal(t, 2, rep.Resolved)

	require.Equal(t, []string{"GetPresetMeals:", "UpdateMenu:m1", "DeleteMenu:m1"}, f.remote.Calls())
	require.Zero(t, f.queueLen(t))
}

func TestDrain_RetryCeilingAbandons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Fail("DeleteMenu", errors.New("remote down"))

	f.enqueue(t, models.DeleteMenuOp{MenuID: "m1"})

	for i := 1; i < common.MaxSyncRetries; i++ {
		rep, _ := f.sync.Drain(ctx)
		require.Equal(t, 1, rep.Retried)
		require.Equal(t, 1, f.queueLen(t))
	}
	rep, _ := f.sync.Drain(ctx)
	require.Equal(t, 1, rep.Abandoned)
	require.Zero(t, f.queueLen(t))
	require.Equal(t, common.MaxSyncRetries, f.remote.CallCount("DeleteMenu"))

	st, err := f.sync.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.Abandoned)
	require.Contains(t, f.logs.String(), common.ErrSyncExhausted.Error())
}

func TestDrain_StopsWhenOffline(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})
	f.enqueue(t, models.DeleteMenuOp{MenuID: "b"})
	f.online.Set(false)

	rep, ran := f.sync.Drain(context.Background())
	require.True(t, ran)
	require.True(t, rep.Interrupted)
	require.Zero(t, rep.Processed)
	require.Equal(t, 2, f.queueLen(t))

	last, err := f.cache.LastSyncTime(context.Background())
	require.NoError(t, err)
	require.True(t, last.IsZero())
}

type offlineAfterFirst struct {
	*remotetest.Fake
	online *remotetest.Online
}

func (o offlineAfterFirst) DeleteMenu(ctx context.Context, id string) error {
	err := o.Fake.DeleteMenu(ctx, id)
	o.online.Set(false)
	return err
}

func TestDrain_ConnectivityLostMidDrain(t *testing.T) {
	f := newFixture(t)
	f.sync.remote = offlineAfterFirst{Fake: f.remote, online: f.online}
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})
	f.enqueue(t, models.DeleteMenuOp{MenuID: "b"})

	rep, _ := f.sync.Drain(context.Background())
	require.True(t, rep.Interrupted)
	require.Equal(t, 1, rep.Resolved)
	require.Equal(t, 1, f.queueLen(t))
}

func TestDrain_PresetFailureDoesNotBlockQueue(t *testing.T) {
	f := newFixture(t)
	f.remote.Fail("GetPresetMeals", errors.New("meals down"))
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})

	rep, _ := f.sync.Drain(context.Background())
	require.Equal(t, 1, rep.Resolved)
}

func TestDrain_RefreshesPresetMeals(t *testing.T) {
	f := newFixture(t)
	f.remote.PutMeals(&models.Meal{ID: "1", Name: "Soup", IsPreset: true})

	_, _ = f.sync.Drain(context.Background())

	meals, err := f.cache.GetPresetMeals(context.Background())
	require.NoError(t, err)
	require.Len(t, meals, 1)
}

func TestDrain_CreateRemapsLaterItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data := models.CreateMenuData{Name: "Offline", PeriodWeeks: 1, StartDate: "2024-01-01"}
	temp := data.Menu("temp-1", "local1", f.clock)
	require.NoError(t, f.cache.SaveMenu(ctx, temp))
	local := models.EntryInput{MenuID: "temp-1", MealID: "meal", Date: "2024-01-02", MealType: models.MealTypeLunch}
	require.NoError(t, f.cache.SaveMenuEntries(ctx, []*models.MenuEntry{local.Entry("temp-e", f.clock)}))

	f.enqueue(t, models.CreateMenuOp{TempID: "temp-1", Data: data})
	f.enqueue(t, models.UpsertEntryOp{LocalID: "temp-e", Entry: local})

	rep, _ := f.sync.Drain(ctx)
	require.Equal(t, 2, rep.Resolved)

	calls := f.remote.Calls()
	require.Equal(t, "CreateMenu:Offline", calls[1])
	require.Equal(t, "UpsertMenuEntry:srv-1/2024-01-02/lunch", calls[2])

	gone, err := f.cache.GetMenu(ctx, "temp-1")
	require.NoError(t, err)
	require.Nil(t, gone)

	entries, err := f.cache.GetMenuEntries(ctx, "srv-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "entry-2", entries[0].ID)
}

func TestDrain_DefersItemsOfPendingCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Fail("CreateMenu", errors.New("timeout"))

	f.enqueue(t, models.CreateMenuOp{TempID: "temp-1", Data: models.CreateMenuData{Name: "X", PeriodWeeks: 1, StartDate: "2024-01-01"}})
	f.enqueue(t, models.DeleteMenuOp{MenuID: "temp-1"})

	rep, _ := f.sync.Drain(ctx)
	require.Equal(t, 1, rep.Retried)
	require.Equal(t, 1, rep.Deferred)
	require.Zero(t, f.remote.CallCount("DeleteMenu"))

	items, err := f.cache.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Zero(t, items[1].RetryCount)
}

func TestDrain_LockDropsConcurrentTrigger(t *testing.T) {
	f := newFixture(t)
	f.sync.running.Store(true)

	_, ran := f.sync.Drain(context.Background())
	require.False(t, ran)

	rep, err := f.sync.ForceSync(context.Background())
	require.NoError(t, err)
	require.Equal(t, Report{}, rep)
	require.Empty(t, f.remote.Calls())
}

func TestForceSync_OfflineIsError(t *testing.T) {
	f := newFixture(t)
	f.online.Set(false)

	_, err := f.sync.ForceSync(context.Background())
	require.ErrorIs(t, err, common.ErrOffline)
}

func TestForceSync_SetsLastSyncTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sync.ForceSync(ctx)
	require.NoError(t, err)

	st, err := f.sync.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IsOnline)
	assert.False(t, st.IsSyncing)
	assert.Equal(t, f.clock, st.LastSyncTime)
}

func TestDrain_UndecodableItemAbandoned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})

	items, err := f.cache.Queue(ctx)
	require.NoError(t, err)
	items[0].Op = nil
	rep := Report{}
	f.sync.abandonUndecodable(ctx, items[0], &rep)
	require.Equal(t, 1, rep.Abandoned)
	require.Zero(t, f.queueLen(t))
}

type fixedBackoff time.Duration

func (b fixedBackoff) Next() (time.Duration, bool) { return time.Duration(b), false }

func TestBackoff_DelaysTicksAfterFailures(t *testing.T) {
	f := newFixture(t, WithBackoff(func() retry.Backoff { return fixedBackoff(time.Minute) }))
	f.remote.Fail("DeleteMenu", errors.New("down"))
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})

	_, _ = f.sync.Drain(context.Background())
	require.False(t, f.sync.due())

	f.clock = f.clock.Add(time.Minute)
	require.True(t, f.sync.due())

	f.remote.Fail("DeleteMenu", nil)
	_, _ = f.sync.Drain(context.Background())
	require.True(t, f.sync.due())
}

func TestStatus_WithoutStorage(t *testing.T) {
	s := New(cache.New(nil), remotetest.New(), remotetest.NewOnline(false))
	st, err := s.Status(context.Background())
	require.NoError(t, err)
	require.Zero(t, st.QueueLength)
	require.False(t, st.IsOnline)
}

func TestInit_DrainsOnStartAndOnReconnect(t *testing.T) {
	f := newFixture(t, WithInterval(time.Hour))
	f.online.Set(false)
	f.enqueue(t, models.DeleteMenuOp{MenuID: "a"})

	require.NoError(t, f.sync.Init(context.Background()))
	require.Error(t, f.sync.Init(context.Background()))

	f.online.Set(true)
	require.Eventually(t, func() bool {
		n, err := f.cache.QueueLength(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	f.sync.Close()
	f.sync.Close()
}

func TestNew_NonPositiveSettingsFallBackToDefaults(t *testing.T) {
	f := newFixture(t, WithInterval(0), WithMaxRetries(0))

	assert.Equal(t, DefaultInterval, f.sync.interval)
	assert.Equal(t, common.MaxSyncRetries, f.sync.maxRetries)

	require.NotPanics(t, func() {
		require.NoError(t, f.sync.Init(context.Background()))
	})
	f.sync.Close()
}
