package server

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/store"
)

// statusView is the status row as served to clients, with the clock-based
// opening-hours check alongside the manual switch.
type statusView struct {
	*model.ShopStatus
	WithinHours bool   `json:"within_hours"`
	Hours       string `json:"hours"`
}

func (s *CafeServer) viewStatus(st *model.ShopStatus) *statusView {
	return &statusView{
		ShopStatus:  st,
		WithinHours: s.schedule.OpenAt(time.Now()),
		Hours:       s.schedule.String(),
	}
}

// resolveStatusID maps the zero id to the configured status row.
func (s *CafeServer) resolveStatusID(id int64) (int64, error) {
	switch {
	case id == 0:
		return s.statusRowID, nil
	case id < 0:
		return 0, inputError(fmt.Sprintf("invalid status id %d", id))
	}
	return id, nil
}

// getStatus reads a status row. A zero id selects the configured row.
func (s *CafeServer) getStatus(ctx context.Context, id int64) (*model.ShopStatus, error) {
	id, err := s.resolveStatusID(id)
	if err != nil {
		return nil, err
	}
	return s.store.GetStatus(ctx, id)
}

// setStatusInput holds transport-agnostic parameters for a status write.
type setStatusInput struct {
	ID     int64  `json:"id,omitempty"`
	IsOpen *bool  `json:"is_open"`
	Actor  string `json:"actor,omitempty"`
}

// setStatus writes is_open on an existing status row and publishes a
// StatusUpdated event. The row is never created here.
func (s *CafeServer) setStatus(ctx context.Context, in setStatusInput) (*model.ShopStatus, error) {
	if in.IsOpen == nil {
		return nil, inputError("is_open is required")
	}
	id, err := s.resolveStatusID(in.ID)
	if err != nil {
		return nil, err
	}

	var st *model.ShopStatus
	err = s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		var err error
		if st, err = tx.UpdateStatus(ctx, id, *in.IsOpen); err != nil {
			return nil, err
		}
		return &pendingEvent{
			topic: events.TopicStatusUpdated,
			rowID: id,
			actor: in.Actor,
			event: events.StatusUpdated{Status: st, Meta: s.meta()},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// menuItemInput holds parameters for creating a menu item.
type menuItemInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	BestSeller  bool    `json:"best_seller"`
	ImageURL    string  `json:"image_url"`
	Actor       string  `json:"actor,omitempty"`
}

func (s *CafeServer) createMenuItem(ctx context.Context, in menuItemInput) (*model.MenuItem, error) {
	item := &model.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		BestSeller:  in.BestSeller,
		ImageURL:    in.ImageURL,
	}
	if err := model.ValidateMenuItem(item); err != nil {
		return nil, validationInput(err)
	}

	err := s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		if err := tx.CreateMenuItem(ctx, item); err != nil {
			return nil, fmt.Errorf("create menu item: %w", err)
		}
		return &pendingEvent{
			topic: events.TopicMenuCreated,
			rowID: item.ID,
			actor: in.Actor,
			event: events.MenuCreated{Item: item, Meta: s.meta()},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// menuItemPatch holds a partial update; nil fields are left unchanged.
type menuItemPatch struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	BestSeller  *bool    `json:"best_seller"`
	ImageURL    *string  `json:"image_url"`
	Actor       string   `json:"actor,omitempty"`
}

func (p menuItemPatch) apply(item *model.MenuItem) map[string]any {
	changes := make(map[string]any)
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
		changes["name"] = item.Name
	}
	if p.Price != nil {
		item.Price = *p.Price
		changes["price"] = item.Price
	}
	if p.Description != nil {
		item.Description = *p.Description
		changes["description"] = item.Description
	}
	if p.Category != nil {
		item.Category = strings.TrimSpace(*p.Category)
		changes["category"] = item.Category
	}
	if p.BestSeller != nil {
		item.BestSeller = *p.BestSeller
		changes["best_seller"] = item.BestSeller
	}
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
		changes["image_url"] = item.ImageURL
	}
	return changes
}

func (s *CafeServer) updateMenuItem(ctx context.Context, id int64, patch menuItemPatch) (*model.MenuItem, error) {
	var item *model.MenuItem
	err := s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		var err error
		if item, err = tx.GetMenuItem(ctx, id); err != nil {
			return nil, err
		}
		changes := patch.apply(item)
		if len(changes) == 0 {
			return nil, inputError("no fields to update")
		}
		if err := model.ValidateMenuItem(item); err != nil {
			return nil, validationInput(err)
		}
		if err := tx.UpdateMenuItem(ctx, item); err != nil {
			return nil, fmt.Errorf("update menu item: %w", err)
		}
		return &pendingEvent{
			topic: events.TopicMenuUpdated,
			rowID: id,
			actor: patch.Actor,
			event: events.MenuUpdated{Item: item, Changes: changes, Meta: s.meta()},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CafeServer) deleteMenuItem(ctx context.Context, id int64, actor string) error {
	return s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		if err := tx.DeleteMenuItem(ctx, id); err != nil {
			return nil, err
		}
		return &pendingEvent{
			topic: events.TopicMenuDeleted,
			rowID: id,
			actor: actor,
			event: events.MenuDeleted{ItemID: id, Meta: s.meta()},
		}, nil
	})
}

// listCategories returns the default categories followed by any others in
// use, without duplicates.
func (s *CafeServer) listCategories(ctx context.Context) ([]string, error) {
	used, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(model.DefaultCategories)
	for _, c := range used {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// photoInput holds parameters for adding a gallery photo.
type photoInput struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Actor    string `json:"actor,omitempty"`
}

func (s *CafeServer) createPhoto(ctx context.Context, in photoInput) (*model.Photo, error) {
	photo := &model.Photo{ImageURL: strings.TrimSpace(in.ImageURL), Caption: in.Caption}
	if err := model.ValidatePhoto(photo); err != nil {
		return nil, validationInput(err)
	}
	err := s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		if err := tx.CreatePhoto(ctx, photo); err != nil {
			return nil, fmt.Errorf("create photo: %w", err)
		}
		return &pendingEvent{
			topic: events.TopicGalleryCreated,
			rowID: photo.ID,
			actor: in.Actor,
			event: events.GalleryCreated{Photo: photo, Meta: s.meta()},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *CafeServer) deletePhoto(ctx context.Context, id int64, actor string) error {
	return s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		if err := tx.DeletePhoto(ctx, id); err != nil {
			return nil, err
		}
		return &pendingEvent{
			topic: events.TopicGalleryDeleted,
			rowID: id,
			actor: actor,
			event: events.GalleryDeleted{PhotoID: id, Meta: s.meta()},
		}, nil
	})
}

// heroInput holds the hero banner content. The row id is server-configured.
type heroInput struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url"`
	Actor    string `json:"actor,omitempty"`
}

func (s *CafeServer) upsertHero(ctx context.Context, in heroInput) (*model.Hero, error) {
	hero := &model.Hero{
		ID:       s.heroRowID,
		Title:    strings.TrimSpace(in.Title),
		Subtitle: in.Subtitle,
		ImageURL: in.ImageURL,
	}
	if err := model.ValidateHero(hero); err != nil {
		return nil, validationInput(err)
	}
	err := s.recordAndPublish(ctx, func(tx store.Store) (*pendingEvent, error) {
		if err := tx.UpsertHero(ctx, hero); err != nil {
			return nil, fmt.Errorf("upsert hero: %w", err)
		}
		return &pendingEvent{
			topic: events.TopicHeroUpdated,
			rowID: hero.ID,
			actor: in.Actor,
			event: events.HeroUpdated{Hero: hero, Meta: s.meta()},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return hero, nil
}
