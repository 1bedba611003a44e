package meals

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/mealplanner/internal/client/migrations"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Up(context.Background(), db)
	require.NoError(t, err)
	return db
}

func TestCreateOrUpdate_RoundTrip(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	m := &models.Meal{
		ID:          "m1",
		Name:        "Oatmeal",
		Description: "with berries",
		FoodItems:   []string{"oats", "milk"},
		Tags:        []string{"Breakfast", "quick"},
		IsPreset:    true,
	}
	require.NoError(t, r.CreateOrUpdate(ctx, m))

	got, err := r.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, m, got)

	missing, err := r.GetByID(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestGetByTag_UsesTagIndex(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "1", Name: "Toast", Tags: []string{"Breakfast"}, IsPreset: true}))
	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "2", Name: "Eggs", Tags: []string{"breakfast", "protein"}, IsPreset: true}))
	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "3", Name: "Steak", Tags: []string{"protein"}, IsPreset: true}))

	got, err := r.GetByTag(ctx, "BREAKFAST")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Eggs", got[0].Name)
	assert.Equal(t, "Toast", got[1].Name)

	// retagging drops the old index rows
	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "2", Name: "Eggs", Tags: []string{"protein"}, IsPreset: true}))
	got, err = r.GetByTag(ctx, "breakfast")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestGetByName_AndGetAll(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "1", Name: "Soup"}))
	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "2", Name: "Salad"}))

	got, err := r.GetByName(ctx, "Soup")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].ID)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Salad", all[0].Name)
}

func TestClear(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "1", Name: "Soup", Tags: []string{"warm"}}))
	require.NoError(t, r.Clear(ctx))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM preset_meal_tags`).Scan(&n))
	require.Zero(t, n)
}

func TestDBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.GetAll(ctx)
	require.ErrorContains(t, err, "failed to list meals")
	require.ErrorContains(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "x"}), "failed to save meal x")
}

func TestGetPresets_ExcludesCustomMeals(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "1", Name: "Soup", IsPreset: true}))
	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "2", Name: "Grandma's stew"}))

	presets, err := r.GetPresets(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "1", presets[0].ID)

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteByID_RemovesTags(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.CreateOrUpdate(ctx, &models.Meal{ID: "1", Name: "Soup", Tags: []string{"warm"}}))
	require.NoError(t, r.DeleteByID(ctx, "1"))
	require.NoError(t, r.DeleteByID(ctx, "missing"))

	m, err := r.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, m)

	tagged, err := r.GetByTag(ctx, "warm")
	require.NoError(t, err)
	assert.Empty(t, tagged)
}
