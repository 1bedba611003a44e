package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote/remotetest"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var errNet = fmt.Errorf("dial tcp: %w", common.ErrNetworkUnavailable)

type fixture struct {
	svc    MenuService
	cache  *cache.Cache
	remote *remotetest.Fake
	online *remotetest.Online
}

func setup(t *testing.T, online bool) *fixture {
	t.Helper()
	s, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{
		cache:  cache.New(s, cache.WithClock(func() time.Time { return testNow })),
		remote: remotetest.New(),
		online: remotetest.NewOnline(online),
	}
	f.svc = NewMenuService(f.remote, f.cache, f.online, nil)
	return f
}

func (f *fixture) queue(t *testing.T) []*models.QueueItem {
	t.Helper()
	items, err := f.cache.Queue(context.Background())
	require.NoError(t, err)
	return items
}

func twoWeekMenu(id string) *models.Menu {
	m := &models.Menu{ID: id, ShortID: "abc123", EditKey: "secretkey1234", Name: "Family", PeriodWeeks: 2, StartDate: "2024-01-01"}
	m.Normalize()
	return m
}

func TestGetMenu_RemoteFillsCache(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(twoWeekMenu("m1"))

	m, err := f.svc.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "Family", m.Name)

	cached, err := f.cache.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 14, cached.TotalDays)
}

func TestGetMenu_FallsBackToCacheOnNetworkError(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	f.remote.SetErr(errNet)

	m, err := f.svc.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "m1", m.ID)
}

func TestGetMenu_OfflineSkipsRemote(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))

	m, err := f.svc.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, f.remote.Calls())
}

func TestGetMenu_AbsentEverywhereIsNil(t *testing.T) {
	f := setup(t, true)
	m, err := f.svc.GetMenu(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestGetMenu_WithoutStorage(t *testing.T) {
	r := remotetest.New()
	svc := NewMenuService(r, cache.New(nil), remotetest.NewOnline(true), nil)
	r.PutMenu(twoWeekMenu("m1"))

	m, err := svc.GetMenu(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, m)

	r.SetErr(errNet)
	m, err = svc.GetMenu(context.Background(), "m1")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestGetMenuByShortID_Fallback(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	f.remote.SetErr(errNet)

	m, err := f.svc.GetMenuByShortID(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "m1", m.ID)
}

func TestGetMenuEntries_RemoteThenCache(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutEntry(&models.MenuEntry{ID: "e1", MenuID: "m1", MealID: "a", Date: "2024-01-01", MealType: models.MealTypeLunch})

	entries, err := f.svc.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	f.online.Set(false)
	entries, err = f.svc.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "e1", entries[0].ID)

	entries, err = f.svc.GetMenuEntries(ctx, "other")
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestPresetMeals_CachedAndSearched(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMeals(
		&models.Meal{ID: "1", Name: "Tomato soup", Tags: []string{"Vegan"}, IsPreset: true},
		&models.Meal{ID: "2", Name: "Pancakes", IsPreset: true},
	)

	meals, err := f.svc.GetPresetMeals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 2)

	f.remote.SetErr(errNet)
	meals, err = f.svc.GetPresetMeals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 2)

	found, err := f.svc.SearchPresetMeals(ctx, "soup")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "1", found[0].ID)
}

func TestSearchPresetMeals_NoHitsStaysLocal(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.cache.SavePresetMeals(ctx, []*models.Meal{{ID: "1", Name: "Tomato soup", IsPreset: true}}))

	found, err := f.svc.SearchPresetMeals(ctx, "lasagne")
	require.NoError(t, err)
	require.Empty(t, found)
	require.NotNil(t, found)
	require.Zero(t, f.remote.CallCount("GetPresetMeals"))
}

func TestSearchPresetMeals_EmptyCacheAsksRemote(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMeals(&models.Meal{ID: "1", Name: "Tomato soup", IsPreset: true})

	found, err := f.svc.SearchPresetMeals(ctx, "soup")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 1, f.remote.CallCount("GetPresetMeals"))
}

func TestCreateMenu_Online(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	m, err := f.svc.CreateMenu(ctx, models.CreateMenuData{Name: "Week", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.NoError(t, err)
	require.Equal(t, "srv-1", m.ID)
	require.Empty(t, f.queue(t))

	cached, err := f.cache.GetMenu(ctx, "srv-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestCreateMenu_OfflineIsVisibleAndQueued(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	m, err := f.svc.CreateMenu(ctx, models.CreateMenuData{Name: "Week", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.ErrorIs(t, err, common.ErrPendingSync)
	require.NotNil(t, m)
	require.True(t, common.IsTempID(m.ID))
	require.Len(t, m.ShortID, localShortIDLen)

	cached, err := f.cache.GetMenu(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)

	items := f.queue(t)
	require.Len(t, items, 1)
	op, ok := items[0].Op.(models.CreateMenuOp)
	require.True(t, ok)
	require.Equal(t, m.ID, op.TempID)
}

func TestCreateMenu_OnlineFailureQueues(t *testing.T) {
	f := setup(t, true)
	f.remote.Fail("CreateMenu", errNet)

	m, err := f.svc.CreateMenu(context.Background(), models.CreateMenuData{Name: "Week", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.ErrorIs(t, err, common.ErrPendingSync)
	require.ErrorIs(t, err, common.ErrNetworkUnavailable)
	require.NotNil(t, m)
	require.Len(t, f.queue(t), 1)
}

func TestCreateMenu_InvalidNeverQueued(t *testing.T) {
	f := setup(t, false)
	_, err := f.svc.CreateMenu(context.Background(), models.CreateMenuData{Name: "", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.ErrorIs(t, err, common.ErrValidation)
	require.Empty(t, f.queue(t))
}

func TestCreateMenu_NoStorageOffline(t *testing.T) {
	svc := NewMenuService(remotetest.New(), cache.New(nil), remotetest.NewOnline(false), nil)
	_, err := svc.CreateMenu(context.Background(), models.CreateMenuData{Name: "W", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.False(t, IsPending(err))
}

func TestUpdateMenu_OfflineAppliesPatch(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))

	name := "Renamed"
	m, err := f.svc.UpdateMenu(ctx, "m1", models.UpdateMenuData{Name: &name})
	require.ErrorIs(t, err, common.ErrPendingSync)
	require.Equal(t, "Renamed", m.Name)

	cached, err := f.cache.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", cached.Name)
	require.Len(t, f.queue(t), 1)
}

func TestUpdateMenu_OfflineNotCached(t *testing.T) {
	f := setup(t, false)
	name := "x"
	_, err := f.svc.UpdateMenu(context.Background(), "m1", models.UpdateMenuData{Name: &name})
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Empty(t, f.queue(t))
}

func TestUpdateMenu_RemoteNotFoundNotQueued(t *testing.T) {
	f := setup(t, true)
	name := "x"
	_, err := f.svc.UpdateMenu(context.Background(), "missing", models.UpdateMenuData{Name: &name})
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Empty(t, f.queue(t))
}

func TestUpdateMenu_EmptyPatch(t *testing.T) {
	f := setup(t, true)
	_, err := f.svc.UpdateMenu(context.Background(), "m1", models.UpdateMenuData{})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateMenu_TempIDIsQueuedEvenOnline(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	m, err := f.svc.CreateMenu(ctx, models.CreateMenuData{Name: "W", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.True(t, IsPending(err))

	f.online.Set(true)
	name := "W2"
	_, err = f.svc.UpdateMenu(ctx, m.ID, models.UpdateMenuData{Name: &name})
	require.ErrorIs(t, err, common.ErrPendingSync)
	require.Zero(t, f.remote.CallCount("UpdateMenu"))
	require.Len(t, f.queue(t), 2)
}

func TestDeleteMenu_OfflineRemovesEntries(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	require.NoError(t, f.cache.SaveMenuEntries(ctx, []*models.MenuEntry{
		{ID: "e1", MenuID: "m1", MealID: "a", Date: "2024-01-01", MealType: models.MealTypeLunch},
		{ID: "e2", MenuID: "m1", MealID: "b", Date: "2024-01-02", MealType: models.MealTypeDinner},
	}))

	err := f.svc.DeleteMenu(ctx, "m1")
	require.ErrorIs(t, err, common.ErrPendingSync)

	entries, err := f.cache.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Len(t, f.queue(t), 1)
}

func TestDeleteMenu_Online(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(twoWeekMenu("m1"))
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))

	require.NoError(t, f.svc.DeleteMenu(ctx, "m1"))
	require.Nil(t, f.remote.Menu("m1"))
	cached, err := f.cache.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestUpsertEntry_TwoUpsertsLeaveOne(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))

	in := models.EntryInput{MenuID: "m1", MealID: "A", Date: "2024-01-01", MealType: models.MealTypeLunch}
	_, err := f.svc.UpsertEntry(ctx, in)
	require.True(t, IsPending(err))
	in.MealID = "B"
	_, err = f.svc.UpsertEntry(ctx, in)
	require.True(t, IsPending(err))

	entries, err := f.cache.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "B", entries[0].MealID)
	require.Len(t, f.queue(t), 2)
}

func TestUpsertEntry_FailedQueueLeavesNoRow(t *testing.T) {
	s, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	c := cache.New(s, cache.WithIDGenerator(func() string { return "dup" }))
	svc := NewMenuService(remotetest.New(), c, remotetest.NewOnline(false), nil)
	ctx := context.Background()

	require.NoError(t, c.SaveMenu(ctx, twoWeekMenu("m1")))
	_, err = c.Enqueue(ctx, models.DeleteMenuOp{MenuID: "other"})
	require.NoError(t, err)

	_, err = svc.UpsertEntry(ctx, models.EntryInput{MenuID: "m1", MealID: "A", Date: "2024-01-01", MealType: models.MealTypeLunch})
	require.Error(t, err)
	require.False(t, IsPending(err))

	entries, err := c.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpsertEntry_AfterCreateConfirmed(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	temp, err := f.svc.CreateMenu(ctx, models.CreateMenuData{Name: "Week", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.True(t, IsPending(err))
	items := f.queue(t)
	require.Len(t, items, 1)

	// the synchronizer confirms the create while the caller still holds
	// the temp id
	server := *temp
	server.ID = "srv-1"
	require.NoError(t, f.cache.ResolveCreate(ctx, items[0].ID, temp.ID, &server))

	e, err := f.svc.UpsertEntry(ctx, models.EntryInput{MenuID: temp.ID, MealID: "A", Date: "2024-01-02", MealType: models.MealTypeLunch})
	require.True(t, IsPending(err))
	require.Equal(t, "srv-1", e.MenuID)

	items = f.queue(t)
	require.Len(t, items, 1)
	require.Equal(t, "srv-1", models.MenuIDOf(items[0].Op))

	name := "Renamed"
	f.online.Set(true)
	f.remote.PutMenu(&server)
	m, err := f.svc.UpdateMenu(ctx, temp.ID, models.UpdateMenuData{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "srv-1", m.ID)
	require.Equal(t, 1, f.remote.CallCount("UpdateMenu"))
}

func TestUpsertEntry_OutsidePeriodRejected(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))

	_, err := f.svc.UpsertEntry(ctx, models.EntryInput{MenuID: "m1", MealID: "A", Date: "2024-01-15", MealType: models.MealTypeLunch})
	require.ErrorIs(t, err, common.ErrValidation)
	require.Zero(t, f.remote.CallCount("UpsertMenuEntry"))
	require.Empty(t, f.queue(t))
}

func TestUpsertEntry_UnknownMenu(t *testing.T) {
	f := setup(t, false)
	_, err := f.svc.UpsertEntry(context.Background(), models.EntryInput{MenuID: "m1", MealID: "A", Date: "2024-01-01", MealType: models.MealTypeLunch})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAssignMeal_DayIndex(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(twoWeekMenu("m1"))

	e, err := f.svc.AssignMeal(ctx, "m1", 13, models.MealTypeDinner, "A", "")
	require.NoError(t, err)
	require.Equal(t, "2024-01-14", e.Date)

	_, err = f.svc.AssignMeal(ctx, "m1", 14, models.MealTypeDinner, "A", "")
	require.ErrorIs(t, err, common.ErrValidation)
	require.Equal(t, 1, f.remote.CallCount("UpsertMenuEntry"))
}

func TestDeleteEntry_OfflineQueued(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenuEntries(ctx, []*models.MenuEntry{
		{ID: "e1", MenuID: "m1", MealID: "a", Date: "2024-01-01", MealType: models.MealTypeLunch},
	}))

	key := models.EntryKey{MenuID: "m1", Date: "2024-01-01", MealType: models.MealTypeLunch}
	require.ErrorIs(t, f.svc.DeleteEntry(ctx, key), common.ErrPendingSync)

	e, err := f.cache.GetMenuEntry(ctx, key)
	require.NoError(t, err)
	require.Nil(t, e)
	items := f.queue(t)
	require.Len(t, items, 1)
	require.Equal(t, models.DeleteEntryOp{Key: key}, items[0].Op)
}

func TestImportMenu(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(twoWeekMenu("m1"))
	f.remote.PutEntry(&models.MenuEntry{ID: "e1", MenuID: "m1", MealID: "a", Date: "2024-01-01", MealType: models.MealTypeLunch})

	_, err := f.svc.ImportMenu(ctx, "abc123", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidEditKey)

	m, err := f.svc.ImportMenu(ctx, "abc123", "secretkey1234")
	require.NoError(t, err)
	require.Equal(t, "m1", m.ID)

	entries, err := f.cache.GetMenuEntries(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = f.svc.ImportMenu(ctx, "zzzzzz", "")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDownloadMenus(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	stale := twoWeekMenu("m1")
	stale.Name = "old"
	require.NoError(t, f.cache.SaveMenu(ctx, stale))
	fresh := twoWeekMenu("m1")
	fresh.Name = "new"
	f.remote.PutMenu(fresh)
	f.remote.PutEntry(&models.MenuEntry{ID: "e1", MenuID: "m1", MealID: "a", Date: "2024-01-01", MealType: models.MealTypeLunch})

	gone := twoWeekMenu("m2")
	gone.ShortID = "gone00"
	require.NoError(t, f.cache.SaveMenu(ctx, gone))

	n, err := f.svc.DownloadMenus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	m, err := f.cache.GetMenu(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "new", m.Name)
	m2, err := f.cache.GetMenu(ctx, "m2")
	require.NoError(t, err)
	require.Nil(t, m2)

	last, err := f.cache.LastSyncTime(ctx)
	require.NoError(t, err)
	require.Equal(t, testNow, last)
}

func TestDownloadMenus_SkipsPending(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	name := "mine"
	_, err := f.svc.UpdateMenu(ctx, "m1", models.UpdateMenuData{Name: &name})
	require.True(t, IsPending(err))

	_, err = f.svc.DownloadMenus(ctx)
	require.ErrorIs(t, err, common.ErrOffline)

	f.online.Set(true)
	n, err := f.svc.DownloadMenus(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, f.remote.CallCount("GetMenuByID"))
}

func TestDownloadMenus_ReportsFailures(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	f.remote.Fail("GetMenuByID", errors.New("boom"))

	n, err := f.svc.DownloadMenus(ctx)
	require.Error(t, err)
	require.Zero(t, n)
}

func TestListCachedMenus(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	menus, err := f.svc.ListCachedMenus(ctx)
	require.NoError(t, err)
	require.Empty(t, menus)

	require.NoError(t, f.cache.SaveMenu(ctx, twoWeekMenu("m1")))
	menus, err = f.svc.ListCachedMenus(ctx)
	require.NoError(t, err)
	require.Len(t, menus, 1)
}
