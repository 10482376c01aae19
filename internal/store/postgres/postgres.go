// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// Pool limits. One shop's admin and viewer traffic fits in a small pool.
const (
	maxOpenConns    = 8
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

// New connects to databaseURL and brings the schema up to date. The status
// row itself is provisioned out of band; migrations never insert it.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an existing connection without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// migrateUp applies the embedded migrations. An up-to-date schema is not
// an error.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "cafe_schema_migrations"})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetStatus(ctx context.Context, id int64) (*model.ShopStatus, error) {
	return queryGetStatus(ctx, s.db, id)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, isOpen bool) (*model.ShopStatus, error) {
	return queryUpdateStatus(ctx, s.db, id, isOpen)
}

func (s *PostgresStore) CreateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryCreateMenuItem(ctx, s.db, item)
}

func (s *PostgresStore) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	return queryGetMenuItem(ctx, s.db, id)
}

func (s *PostgresStore) ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	return queryListMenuItems(ctx, s.db, filter)
}

func (s *PostgresStore) UpdateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryUpdateMenuItem(ctx, s.db, item)
}

func (s *PostgresStore) DeleteMenuItem(ctx context.Context, id int64) error {
	return queryDeleteMenuItem(ctx, s.db, id)
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]string, error) {
	return queryListCategories(ctx, s.db)
}

func (s *PostgresStore) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	return queryCreatePhoto(ctx, s.db, photo)
}

func (s *PostgresStore) ListPhotos(ctx context.Context) ([]*model.Photo, error) {
	return queryListPhotos(ctx, s.db)
}

func (s *PostgresStore) DeletePhoto(ctx context.Context, id int64) error {
	return queryDeletePhoto(ctx, s.db, id)
}

func (s *PostgresStore) GetHero(ctx context.Context, id int64) (*model.Hero, error) {
	return queryGetHero(ctx, s.db, id)
}

func (s *PostgresStore) UpsertHero(ctx context.Context, hero *model.Hero) error {
	return queryUpsertHero(ctx, s.db, hero)
}

func (s *PostgresStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.db, event)
}

func (s *PostgresStore) ListEvents(ctx context.Context, topic string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db, topic, limit)
}

// RunInTransaction runs fn against a store bound to one transaction. The
// transaction commits only if fn returns nil.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) GetStatus(ctx context.Context, id int64) (*model.ShopStatus, error) {
	return queryGetStatus(ctx, s.tx, id)
}

func (s *txStore) UpdateStatus(ctx context.Context, id int64, isOpen bool) (*model.ShopStatus, error) {
	return queryUpdateStatus(ctx, s.tx, id, isOpen)
}

func (s *txStore) CreateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryCreateMenuItem(ctx, s.tx, item)
}

func (s *txStore) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	return queryGetMenuItem(ctx, s.tx, id)
}

func (s *txStore) ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	return queryListMenuItems(ctx, s.tx, filter)
}

func (s *txStore) UpdateMenuItem(ctx context.Context, item *model.MenuItem) error {
	return queryUpdateMenuItem(ctx, s.tx, item)
}

func (s *txStore) DeleteMenuItem(ctx context.Context, id int64) error {
	return queryDeleteMenuItem(ctx, s.tx, id)
}

func (s *txStore) ListCategories(ctx context.Context) ([]string, error) {
	return queryListCategories(ctx, s.tx)
}

func (s *txStore) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	return queryCreatePhoto(ctx, s.tx, photo)
}

func (s *txStore) ListPhotos(ctx context.Context) ([]*model.Photo, error) {
	return queryListPhotos(ctx, s.tx)
}

func (s *txStore) DeletePhoto(ctx context.Context, id int64) error {
	return queryDeletePhoto(ctx, s.tx, id)
}

func (s *txStore) GetHero(ctx context.Context, id int64) (*model.Hero, error) {
	return queryGetHero(ctx, s.tx, id)
}

func (s *txStore) UpsertHero(ctx context.Context, hero *model.Hero) error {
	return queryUpsertHero(ctx, s.tx, hero)
}

func (s *txStore) RecordEvent(ctx context.Context, event *model.Event) error {
	return queryRecordEvent(ctx, s.tx, event)
}

func (s *txStore) ListEvents(ctx context.Context, topic string, limit int) ([]*model.Event, error) {
	return queryListEvents(ctx, s.tx, topic, limit)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
