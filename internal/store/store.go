package store

import (
	"context"

	"github.com/brewco/cafe/internal/model"
)

// Store defines the persistence interface for the café backend.
//
// Lookups of a missing row return an error wrapping model.ErrNotFound.
type Store interface {
	// Shop status (singleton row, provisioned out-of-band)
	GetStatus(ctx context.Context, id int64) (*model.ShopStatus, error)
	UpdateStatus(ctx context.Context, id int64, isOpen bool) (*model.ShopStatus, error)

	// Menu
	CreateMenuItem(ctx context.Context, item *model.MenuItem) error
	GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error)
	ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *model.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]string, error)

	// Gallery
	CreatePhoto(ctx context.Context, photo *model.Photo) error
	ListPhotos(ctx context.Context) ([]*model.Photo, error)
	DeletePhoto(ctx context.Context, id int64) error

	// Hero banner (singleton, upserted)
	GetHero(ctx context.Context, id int64) (*model.Hero, error)
	UpsertHero(ctx context.Context, hero *model.Hero) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, topic string, limit int) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
