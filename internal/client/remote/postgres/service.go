package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote/postgres/migrations"
	"github.com/dmitrijs2005/mealplanner/internal/common"
)

const (
	shortIDLength   = 6
	editKeyLength   = 13
	createAttempts  = 3
	uniqueViolation = "23505"
)

// Service talks to the hosted database. Every returned error has been
// passed through remote.MapError.
type Service struct {
	db         *sql.DB
	newShortID func() (string, error)
	newEditKey func() (string, error)
}

var _ remote.Service = (*Service)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Service {
	return &Service{
		db:         db,
		newShortID: func() (string, error) { return common.RandomBase36(shortIDLength) },
		newEditKey: func() (string, error) { return common.RandomBase36(editKeyLength) },
	}
}

// Open prepares a pgx-backed handle for dsn. It does not connect; the
// backend may be unreachable at start-up.
func Open(dsn string) (*Service, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return New(db), nil
}

func (s *Service) DB() *sql.DB {
	return s.db
}

func (s *Service) Close() error {
	return s.db.Close()
}

// PingContext makes Service usable as a connectivity probe target.
func (s *Service) PingContext(ctx context.Context) error {
	return remote.MapError(s.db.PingContext(ctx))
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// Migrate brings the backend schema up to date.
func (s *Service) Migrate(ctx context.Context) error {
	if err := gooseUp(ctx, s.db); err != nil {
		return remote.MapError(fmt.Errorf("migration error: %w", err))
	}
	return nil
}

const menuColumns = `id::text, short_id, edit_key, name, description, created_by,
	COALESCE(start_date::text, ''), period_weeks, total_days, is_discoverable,
	discovery_tags::text, view_count, star_count, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanMenu reads menuColumns followed by any extra selected columns.
func scanMenu(s scanner, extra ...any) (*models.Menu, error) {
	var (
		m    models.Menu
		tags string
	)
	dest := []any{&m.ID, &m.ShortID, &m.EditKey, &m.Name, &m.Description, &m.CreatedBy,
		&m.StartDate, &m.PeriodWeeks, &m.TotalDays, &m.IsDiscoverable,
		&tags, &m.ViewCount, &m.StarCount, &m.CreatedAt, &m.UpdatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := decodeList(tags, &m.DiscoveryTags); err != nil {
		return nil, fmt.Errorf("decode discovery tags: %w", err)
	}
	return &m, nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func (s *Service) CreateMenu(ctx context.Context, data models.CreateMenuData) (*models.Menu, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO menuapp_menus (short_id, edit_key, name, description, created_by, start_date, period_weeks)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
		RETURNING ` + menuColumns

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		shortID, err := s.newShortID()
		if err != nil {
			return nil, fmt.Errorf("generate short id: %w", err)
		}
		editKey, err := s.newEditKey()
		if err != nil {
			return nil, fmt.Errorf("generate edit key: %w", err)
		}

		row := s.db.QueryRowContext(ctx, query, shortID, editKey, data.Name, data.Description,
			data.CreatedBy, data.StartDate, data.PeriodWeeks)
		m, err := scanMenu(row)
		if err == nil {
			return m, nil
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
			return nil, remote.MapError(fmt.Errorf("create menu: %w", err))
		}
		lastErr = err
	}
	return nil, remote.MapError(fmt.Errorf("create menu: short id collisions: %w", lastErr))
}

func (s *Service) UpdateMenu(ctx context.Context, id string, patch models.UpdateMenuData) (*models.Menu, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	add := func(col string, v any, cast string) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, len(args), cast))
	}
	if patch.Name != nil {
		add("name", *patch.Name, "")
	}
	if patch.Description != nil {
		add("description", *patch.Description, "")
	}
	if patch.IsDiscoverable != nil {
		add("is_discoverable", *patch.IsDiscoverable, "")
	}
	if patch.DiscoveryTags != nil {
		add("discovery_tags", encodeList(patch.DiscoveryTags), "::jsonb")
	}

	query := `UPDATE menuapp_menus SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + menuColumns
	m, err := scanMenu(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("update menu %s: %w", id, err))
	}
	return m, nil
}

func (s *Service) DeleteMenu(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM menuapp_menus WHERE id = $1`, id); err != nil {
		return remote.MapError(fmt.Errorf("delete menu %s: %w", id, err))
	}
	return nil
}

func (s *Service) getMenu(ctx context.Context, col, v string) (*models.Menu, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menuapp_menus WHERE `+col+` = $1`, v)
	m, err := scanMenu(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("get menu by %s %s: %w", col, v, err))
	}
	return m, nil
}

func (s *Service) GetMenuByID(ctx context.Context, id string) (*models.Menu, error) {
	return s.getMenu(ctx, "id::text", id)
}

func (s *Service) GetMenuByShortID(ctx context.Context, shortID string) (*models.Menu, error) {
	return s.getMenu(ctx, "short_id", shortID)
}

func (s *Service) GetMenuEntries(ctx context.Context, menuID string) ([]*models.MenuEntry, error) {
	query := `
		SELECT e.id::text, e.menu_id::text, e.meal_id::text, e.date::text, e.meal_type, e.notes, e.created_at,
			m.name, m.description, m.food_items::text, m.tags::text, m.is_preset, m.created_at
		FROM menuapp_menu_entries e
		JOIN menuapp_meals m ON m.id = e.meal_id
		WHERE e.menu_id::text = $1
		ORDER BY e.date, e.meal_type`
	rows, err := s.db.QueryContext(ctx, query, menuID)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("select entries of menu %s: %w", menuID, err))
	}
	defer rows.Close()

	result := make([]*models.MenuEntry, 0)
	for rows.Next() {
		var (
			e               models.MenuEntry
			meal            models.Meal
			mealType        string
			foodItems, tags string
			mealCreated     time.Time
		)
		if err := rows.Scan(&e.ID, &e.MenuID, &e.MealID, &e.Date, &mealType, &e.Notes, &e.CreatedAt,
			&meal.Name, &meal.Description, &foodItems, &tags, &meal.IsPreset, &mealCreated); err != nil {
			return nil, remote.MapError(fmt.Errorf("scan entry: %w", err))
		}
		e.MealType = models.MealType(mealType)
		meal.ID = e.MealID
		meal.CreatedAt = mealCreated
		if err := decodeList(foodItems, &meal.FoodItems); err != nil {
			return nil, fmt.Errorf("decode food items: %w", err)
		}
		if err := decodeList(tags, &meal.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		e.Meal = &meal
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, remote.MapError(fmt.Errorf("iterate entries: %w", err))
	}
	return result, nil
}

func (s *Service) UpsertMenuEntry(ctx context.Context, in models.EntryInput) (*models.MenuEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO menuapp_menu_entries (menu_id, meal_id, date, meal_type, notes)
		VALUES ($1::uuid, $2::uuid, $3::date, $4, $5)
		ON CONFLICT (menu_id, date, meal_type)
		DO UPDATE SET meal_id = EXCLUDED.meal_id, notes = EXCLUDED.notes
		RETURNING id::text, menu_id::text, meal_id::text, date::text, meal_type, notes, created_at`

	var (
		e        models.MenuEntry
		mealType string
	)
	err := s.db.QueryRowContext(ctx, query, in.MenuID, in.MealID, in.Date, string(in.MealType), in.Notes).
		Scan(&e.ID, &e.MenuID, &e.MealID, &e.Date, &mealType, &e.Notes, &e.CreatedAt)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("upsert entry %s/%s/%s: %w", in.MenuID, in.Date, in.MealType, err))
	}
	e.MealType = models.MealType(mealType)
	return &e, nil
}

func (s *Service) DeleteMenuEntry(ctx context.Context, key models.EntryKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM menuapp_menu_entries WHERE menu_id::text = $1 AND date = $2::date AND meal_type = $3`,
		key.MenuID, key.Date, string(key.MealType))
	if err != nil {
		return remote.MapError(fmt.Errorf("delete entry %s/%s/%s: %w", key.MenuID, key.Date, key.MealType, err))
	}
	return nil
}

func (s *Service) GetPresetMeals(ctx context.Context) ([]*models.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+mealColumns+`
		FROM menuapp_meals
		WHERE is_preset
		ORDER BY name`)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("select preset meals: %w", err))
	}
	return scanMeals(rows)
}
