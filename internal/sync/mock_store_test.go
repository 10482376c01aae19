package sync

import (
	"context"
	"fmt"

	"github.com/brewco/cafe/internal/model"
)

// mockStore is a minimal in-memory Source for sync tests.
type mockStore struct {
	status  map[int64]*model.ShopStatus
	menu    map[int64]*model.MenuItem
	photos  map[int64]*model.Photo
	heroes  map[int64]*model.Hero
	menuErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		status: make(map[int64]*model.ShopStatus),
		menu:   make(map[int64]*model.MenuItem),
		photos: make(map[int64]*model.Photo),
		heroes: make(map[int64]*model.Hero),
	}
}

func (m *mockStore) GetStatus(_ context.Context, id int64) (*model.ShopStatus, error) {
	st, ok := m.status[id]
	if !ok {
		return nil, fmt.Errorf("status %d: %w", id, model.ErrNotFound)
	}
	return st, nil
}

// ListMenuItems returns items in map order; ExportJSONL must sort them.
func (m *mockStore) ListMenuItems(_ context.Context, _ model.MenuFilter) ([]*model.MenuItem, error) {
	if m.menuErr != nil {
		return nil, m.menuErr
	}
	items := make([]*model.MenuItem, 0, len(m.menu))
	for _, it := range m.menu {
		items = append(items, it)
	}
	return items, nil
}

func (m *mockStore) ListPhotos(_ context.Context) ([]*model.Photo, error) {
	photos := make([]*model.Photo, 0, len(m.photos))
	for _, p := range m.photos {
		photos = append(photos, p)
	}
	return photos, nil
}

func (m *mockStore) GetHero(_ context.Context, id int64) (*model.Hero, error) {
	h, ok := m.heroes[id]
	if !ok {
		return nil, fmt.Errorf("hero %d: %w", id, model.ErrNotFound)
	}
	return h, nil
}
