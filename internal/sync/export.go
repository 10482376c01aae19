package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/store"
)

// Source is the read side of the store that a snapshot needs.
type Source interface {
	GetStatus(ctx context.Context, id int64) (*model.ShopStatus, error)
	ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]*model.MenuItem, error)
	ListPhotos(ctx context.Context) ([]*model.Photo, error)
	GetHero(ctx context.Context, id int64) (*model.Hero, error)
}

var _ Source = (store.Store)(nil)

// Rows names the singleton rows to include.
type Rows struct {
	StatusRowID int64
	HeroRowID   int64
}

// DefaultRows are the conventional singleton ids.
var DefaultRows = Rows{StatusRowID: model.ShopStatusRowID, HeroRowID: model.HeroRowID}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	HasStatus  bool      `json:"has_status"`
	MenuCount  int       `json:"menu_count"`
	PhotoCount int       `json:"photo_count"`
	HasHero    bool      `json:"has_hero"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes the shop's content as JSONL to w: a header, the status
// row, menu items and photos sorted by id, then the hero banner. Singleton
// rows that are not provisioned are left out rather than failing the export.
func ExportJSONL(ctx context.Context, s Source, rows Rows, w io.Writer) error {
	status, err := s.GetStatus(ctx, rows.StatusRowID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("get status: %w", err)
	}

	items, err := s.ListMenuItems(ctx, model.MenuFilter{})
	if err != nil {
		return fmt.Errorf("list menu: %w", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	photos, err := s.ListPhotos(ctx)
	if err != nil {
		return fmt.Errorf("list photos: %w", err)
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].ID < photos[j].ID })

	hero, err := s.GetHero(ctx, rows.HeroRowID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("get hero: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		HasStatus:  status != nil,
		MenuCount:  len(items),
		PhotoCount: len(photos),
		HasHero:    hero != nil,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	if status != nil {
		if err := enc.Encode(record{Type: "status", Data: status}); err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
	}
	for _, item := range items {
		if err := enc.Encode(record{Type: "menu_item", Data: item}); err != nil {
			return fmt.Errorf("encode menu item %d: %w", item.ID, err)
		}
	}
	for _, p := range photos {
		if err := enc.Encode(record{Type: "photo", Data: p}); err != nil {
			return fmt.Errorf("encode photo %d: %w", p.ID, err)
		}
	}
	if hero != nil {
		if err := enc.Encode(record{Type: "hero", Data: hero}); err != nil {
			return fmt.Errorf("encode hero: %w", err)
		}
	}

	return nil
}
