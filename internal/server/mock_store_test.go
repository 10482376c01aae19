package server

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/store"
)

// mockStore is an in-memory store.Store. RunInTransaction snapshots the
// maps and restores them if fn fails, so rollback paths can be tested.
type mockStore struct {
	mu       sync.Mutex
	statuses map[int64]*model.ShopStatus
	menu     map[int64]*model.MenuItem
	photos   map[int64]*model.Photo
	heroes   map[int64]*model.Hero
	events   []*model.Event
	nextID   int64

	// recordErr, when non-nil, is returned by RecordEvent.
	recordErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		statuses: make(map[int64]*model.ShopStatus),
		menu:     make(map[int64]*model.MenuItem),
		photos:   make(map[int64]*model.Photo),
		heroes:   make(map[int64]*model.Hero),
	}
}

// provision creates a status row the way an operator would, out-of-band.
func (m *mockStore) provision(id int64, isOpen bool) *mockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = &model.ShopStatus{ID: id, IsOpen: isOpen, UpdatedAt: time.Now().UTC()}
	return m
}

func (m *mockStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockStore) lastEvent() *model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) GetStatus(_ context.Context, id int64) (*model.ShopStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("shop status %d: %w", id, model.ErrNotFound)
	}
	clone := *st
	return &clone, nil
}

func (m *mockStore) UpdateStatus(_ context.Context, id int64, isOpen bool) (*model.ShopStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("shop status %d: %w", id, model.ErrNotFound)
	}
	st.IsOpen = isOpen
	st.UpdatedAt = time.Now().UTC()
	clone := *st
	return &clone, nil
}

func (m *mockStore) CreateMenuItem(_ context.Context, item *model.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	clone := *item
	m.menu[item.ID] = &clone
	return nil
}

func (m *mockStore) GetMenuItem(_ context.Context, id int64) (*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.menu[id]
	if !ok {
		return nil, fmt.Errorf("menu item %d: %w", id, model.ErrNotFound)
	}
	clone := *item
	return &clone, nil
}

func (m *mockStore) ListMenuItems(_ context.Context, filter model.MenuFilter) ([]*model.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MenuItem
	for _, item := range m.menu {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		clone := *item
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateMenuItem(_ context.Context, item *model.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menu[item.ID]; !ok {
		return fmt.Errorf("menu item %d: %w", item.ID, model.ErrNotFound)
	}
	item.UpdatedAt = time.Now().UTC()
	clone := *item
	m.menu[item.ID] = &clone
	return nil
}

func (m *mockStore) DeleteMenuItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menu[id]; !ok {
		return fmt.Errorf("menu item %d: %w", id, model.ErrNotFound)
	}
	delete(m.menu, id)
	return nil
}

func (m *mockStore) ListCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, item := range m.menu {
		if !slices.Contains(out, item.Category) {
			out = append(out, item.Category)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (m *mockStore) CreatePhoto(_ context.Context, p *model.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now().UTC()
	clone := *p
	m.photos[p.ID] = &clone
	return nil
}

func (m *mockStore) ListPhotos(_ context.Context) ([]*model.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Photo
	for _, p := range m.photos {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockStore) DeletePhoto(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return fmt.Errorf("photo %d: %w", id, model.ErrNotFound)
	}
	delete(m.photos, id)
	return nil
}

func (m *mockStore) GetHero(_ context.Context, id int64) (*model.Hero, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.heroes[id]
	if !ok {
		return nil, fmt.Errorf("hero %d: %w", id, model.ErrNotFound)
	}
	clone := *h
	return &clone, nil
}

func (m *mockStore) UpsertHero(_ context.Context, h *model.Hero) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.UpdatedAt = time.Now().UTC()
	clone := *h
	m.heroes[h.ID] = &clone
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	e.ID = int64(len(m.events) + 1)
	e.CreatedAt = time.Now().UTC()
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, topic string, limit int) ([]*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Event
	for i := len(m.events) - 1; i >= 0; i-- {
		if topic != "" && m.events[i].Topic != topic {
			continue
		}
		out = append(out, m.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	m.mu.Lock()
	snapStatus := cloneRows(m.statuses)
	snapMenu := cloneRows(m.menu)
	snapPhotos := cloneRows(m.photos)
	snapHeroes := cloneRows(m.heroes)
	snapEvents := len(m.events)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.statuses, m.menu, m.photos, m.heroes = snapStatus, snapMenu, snapPhotos, snapHeroes
		m.events = m.events[:snapEvents]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockStore) Close() error { return nil }

func cloneRows[T any](in map[int64]*T) map[int64]*T {
	out := make(map[int64]*T, len(in))
	for k, v := range in {
		clone := *v
		out[k] = &clone
	}
	return out
}
