package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mealplanner/internal/client/migrations"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/meals"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/menuentries"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/menus"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/mealplanner/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/dbx"

	_ "modernc.org/sqlite"
)

// Repositories bundles one repository per collection, all bound to the same
// handle.
type Repositories struct {
	Menus    menus.Repository
	Entries  menuentries.Repository
	Meals    meals.Repository
	Queue    syncqueue.Repository
	Metadata metadata.Repository
}

// NewRepositories binds every repository to db, which may be a transaction.
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Menus:    menus.NewSQLiteRepository(db),
		Entries:  menuentries.NewSQLiteRepository(db),
		Meals:    meals.NewSQLiteRepository(db),
		Queue:    syncqueue.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
}

// Store owns the database handle.
type Store struct {
	db      *sql.DB
	repos   *Repositories
	version int64
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open opens the database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlOpen("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorageUnavailable, dsn, err)
	}
	// One connection keeps an in-memory database alive while the store is open.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", common.ErrStorageUnavailable, dsn, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, MapError(fmt.Errorf("configure %s: %w", dsn, err))
	}

	version, err := migrations.Up(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}

	return &Store{db: db, repos: NewRepositories(db), version: version}, nil
}

// Repos returns repositories bound to the database outside of any
// transaction.
func (s *Store) Repos() *Repositories {
	return s.repos
}

// SchemaVersion is the migration version the store was opened at.
func (s *Store) SchemaVersion() int64 {
	return s.version
}

// InTx runs fn inside one transaction. fn's error, or the commit error,
// is returned after MapError.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewRepositories(tx))
	})
	return MapError(err)
}

// ClearAll wipes every collection in one transaction. Schema and migration
// state are kept.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.InTx(ctx, func(ctx context.Context, r *Repositories) error {
		if err := r.Entries.Clear(ctx); err != nil {
			return err
		}
		if err := r.Menus.Clear(ctx); err != nil {
			return err
		}
		if err := r.Meals.Clear(ctx); err != nil {
			return err
		}
		if err := r.Queue.Clear(ctx); err != nil {
			return err
		}
		return r.Metadata.Clear(ctx)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
