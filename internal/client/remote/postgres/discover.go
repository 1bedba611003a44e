package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/dbx"
)

const foreignKeyViolation = "23503"

var discoverOrder = map[models.DiscoverSort]string{
	models.SortNewest:      "created_at DESC",
	models.SortPopular:     "view_count DESC, created_at DESC",
	models.SortMostStarred: "star_count DESC, created_at DESC",
	models.SortName:        "name ASC",
}

// discoverWhere renders the filter as a WHERE clause whose placeholders
// start at $1.
func discoverWhere(f models.DiscoverFilter) (string, []any) {
	conds := []string{"is_discoverable", "name <> ''"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		p := next("%" + term + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", p, p))
	}
	if len(f.Tags) > 0 {
		ps := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			ps[i] = next(tag)
		}
		conds = append(conds, "discovery_tags ?| ARRAY["+strings.Join(ps, ", ")+"]::text[]")
	}
	if len(f.PeriodWeeks) > 0 {
		ps := make([]string, len(f.PeriodWeeks))
		for i, w := range f.PeriodWeeks {
			ps[i] = next(w)
		}
		conds = append(conds, "period_weeks IN ("+strings.Join(ps, ", ")+")")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// DiscoverMenus returns one page of public menus, marking those starred
// by fingerprint.
func (s *Service) DiscoverMenus(ctx context.Context, f models.DiscoverFilter, fingerprint string) (*models.DiscoverPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f = f.Normalize()
	where, args := discoverWhere(f)

	page := &models.DiscoverPage{Menus: []models.DiscoveredMenu{}}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM menuapp_menus`+where, args...).Scan(&page.Total); err != nil {
		return nil, remote.MapError(fmt.Errorf("count discoverable menus: %w", err))
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s,
		EXISTS (SELECT 1 FROM menuapp_user_menu_stars s WHERE s.menu_id = menuapp_menus.id AND s.user_fingerprint = $%d)
		FROM menuapp_menus%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, menuColumns, n+1, where, discoverOrder[f.SortBy], n+2, n+3)
	rows, err := s.db.QueryContext(ctx, query, append(args, fingerprint, f.Limit, f.Offset())...)
	if err != nil {
		return nil, remote.MapError(fmt.Errorf("select discoverable menus: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var starred bool
		m, err := scanMenu(rows, &starred)
		if err != nil {
			return nil, remote.MapError(fmt.Errorf("scan menu: %w", err))
		}
		page.Menus = append(page.Menus, models.DiscoveredMenu{Menu: m, Starred: starred})
	}
	if err := rows.Err(); err != nil {
		return nil, remote.MapError(fmt.Errorf("iterate menus: %w", err))
	}
	page.HasMore = len(page.Menus) == f.Limit
	return page, nil
}

// ToggleMenuStar stars the menu for fingerprint, or removes an existing
// star, and recounts the menu's stars in the same transaction.
func (s *Service) ToggleMenuStar(ctx context.Context, menuID, fingerprint string) (models.StarResult, error) {
	var res models.StarResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		del, err := tx.ExecContext(ctx,
			`DELETE FROM menuapp_user_menu_stars WHERE menu_id::text = $1 AND user_fingerprint = $2`,
			menuID, fingerprint)
		if err != nil {
			return err
		}
		if n, err := del.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO menuapp_user_menu_stars (menu_id, user_fingerprint) VALUES ($1::uuid, $2)`,
				menuID, fingerprint); err != nil {
				return err
			}
			res.Starred = true
		}
		return tx.QueryRowContext(ctx, `
			UPDATE menuapp_menus
			SET star_count = (SELECT count(*) FROM menuapp_user_menu_stars s WHERE s.menu_id = menuapp_menus.id)
			WHERE id::text = $1
			RETURNING star_count`, menuID).Scan(&res.StarCount)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			err = fmt.Errorf("%w: %w", common.ErrNotFound, err)
		}
		return models.StarResult{}, remote.MapError(fmt.Errorf("toggle star on menu %s: %w", menuID, err))
	}
	return res, nil
}

func (s *Service) IncrementViewCount(ctx context.Context, menuID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE menuapp_menus SET view_count = view_count + 1 WHERE id::text = $1`, menuID)
	if err != nil {
		return remote.MapError(fmt.Errorf("count view of menu %s: %w", menuID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return remote.MapError(fmt.Errorf("count view of menu %s: %w", menuID, sql.ErrNoRows))
	}
	return nil
}
