package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote/remotetest"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

func publicMenu(id, name string, created time.Time, stars int) *models.Menu {
	m := twoWeekMenu(id)
	m.ShortID = "s" + id
	m.Name = name
	m.IsDiscoverable = true
	m.CreatedAt = created
	m.StarCount = stars
	return m
}

func TestDiscoverMenus_Online(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(publicMenu("m1", "Older", testNow, 5))
	f.remote.PutMenu(publicMenu("m2", "Newer", testNow.Add(time.Hour), 1))
	f.remote.PutMenu(twoWeekMenu("private"))

	page, err := f.svc.DiscoverMenus(ctx, models.DiscoverFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.False(t, page.HasMore)
	require.Len(t, page.Menus, 2)
	assert.Equal(t, "m2", page.Menus[0].Menu.ID)

	page, err = f.svc.DiscoverMenus(ctx, models.DiscoverFilter{SortBy: models.SortMostStarred, Limit: 1})
	require.NoError(t, err)
	require.True(t, page.HasMore)
	assert.Equal(t, "m1", page.Menus[0].Menu.ID)
}

func TestDiscoverMenus_Offline(t *testing.T) {
	f := setup(t, false)

	_, err := f.svc.DiscoverMenus(context.Background(), models.DiscoverFilter{})
	require.ErrorIs(t, err, common.ErrOffline)
	assert.Zero(t, f.remote.CallCount("DiscoverMenus"))
}

func TestDiscoverMenus_BadSortRejectedFirst(t *testing.T) {
	f := setup(t, false)

	_, err := f.svc.DiscoverMenus(context.Background(), models.DiscoverFilter{SortBy: "random"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestToggleStar_UpdatesCachedCount(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	m := publicMenu("m1", "Shared", testNow, 2)
	f.remote.PutMenu(m)
	require.NoError(t, f.cache.SaveMenu(ctx, m))

	res, err := f.svc.ToggleStar(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, res.Starred)
	assert.Equal(t, 3, res.StarCount)

	cached, err := f.cache.GetMenu(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, cached.StarCount)

	page, err := f.svc.DiscoverMenus(ctx, models.DiscoverFilter{})
	require.NoError(t, err)
	require.Len(t, page.Menus, 1)
	assert.True(t, page.Menus[0].Starred, "same install sees its own star")

	res, err = f.svc.ToggleStar(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, res.Starred)
	assert.Equal(t, 2, res.StarCount)
}

func TestToggleStar_FingerprintPersisted(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(publicMenu("m1", "Shared", testNow, 0))

	_, err := f.svc.ToggleStar(ctx, "m1")
	require.NoError(t, err)

	// a second service over the same store is the same install
	again := NewMenuService(f.remote, f.cache, f.online, nil)
	res, err := again.ToggleStar(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, res.Starred)
}

func TestToggleStar_TempAndOffline(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	local, err := f.svc.CreateMenu(ctx, models.CreateMenuData{Name: "Local", PeriodWeeks: 1, StartDate: "2024-01-01"})
	require.True(t, IsPending(err))

	_, err = f.svc.ToggleStar(ctx, local.ID)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.ToggleStar(ctx, "m1")
	require.ErrorIs(t, err, common.ErrOffline)
	assert.Zero(t, f.remote.CallCount("ToggleMenuStar"))
}

func TestToggleStar_WithoutStorage(t *testing.T) {
	r := remotetest.New()
	r.PutMenu(publicMenu("m1", "Shared", testNow, 0))
	svc := NewMenuService(r, cache.New(nil), remotetest.NewOnline(true), nil)

	res, err := svc.ToggleStar(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, res.Starred)
}

func TestRecordView(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.remote.PutMenu(publicMenu("m1", "Shared", testNow, 0))

	require.NoError(t, f.svc.RecordView(ctx, "m1"))
	assert.Equal(t, 1, f.remote.Menu("m1").ViewCount)

	require.NoError(t, f.svc.RecordView(ctx, common.NewTempID()))
	assert.Equal(t, 1, f.remote.CallCount("IncrementViewCount"))

	f.online.Set(false)
	require.ErrorIs(t, f.svc.RecordView(ctx, "m1"), common.ErrOffline)
}
