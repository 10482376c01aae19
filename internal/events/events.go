package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brewco/cafe/internal/model"
)

// Event topic constants. Topics are "cafe.<table>.<verb>".
const (
	TopicStatusUpdated = "cafe.status.updated"

	TopicMenuCreated = "cafe.menu.created"
	TopicMenuUpdated = "cafe.menu.updated"
	TopicMenuDeleted = "cafe.menu.deleted"

	TopicGalleryCreated = "cafe.gallery.created"
	TopicGalleryDeleted = "cafe.gallery.deleted"

	TopicHeroUpdated = "cafe.hero.updated"

	// TopicAll matches every cafe event (NATS-style wildcard).
	TopicAll = "cafe.>"
)

// Topics lists every concrete topic the server publishes.
var Topics = []string{
	TopicStatusUpdated,
	TopicMenuCreated,
	TopicMenuUpdated,
	TopicMenuDeleted,
	TopicGalleryCreated,
	TopicGalleryDeleted,
	TopicHeroUpdated,
}

// TopicFor maps a change-feed (table, filter) pair onto a topic pattern.
// EventAll yields a single-segment wildcard over the table's verbs.
func TopicFor(table string, filter model.EventFilter) string {
	table = strings.ToLower(strings.TrimSpace(table))
	switch filter {
	case model.EventInsert:
		return "cafe." + table + ".created"
	case model.EventUpdate:
		return "cafe." + table + ".updated"
	case model.EventDelete:
		return "cafe." + table + ".deleted"
	default:
		return "cafe." + table + ".*"
	}
}

// Meta tags every event with the server instance that produced it, so a
// relay can skip events it already delivered locally.
type Meta struct {
	Origin string `json:"origin,omitempty"`
}

// OriginOf extracts the origin tag from a raw JSON event payload.
// Payloads without a tag (or that fail to decode) report "".
func OriginOf(raw []byte) string {
	var o Meta
	if err := json.Unmarshal(raw, &o); err != nil {
		return ""
	}
	return o.Origin
}

// ChangeEventOf decodes a StatusUpdated payload into the change event a
// status subscriber consumes.
func ChangeEventOf(raw []byte) (model.ChangeEvent, error) {
	var evt StatusUpdated
	if err := json.Unmarshal(raw, &evt); err != nil {
		return model.ChangeEvent{}, fmt.Errorf("decode status event: %w", err)
	}
	if evt.Status == nil {
		return model.ChangeEvent{}, fmt.Errorf("decode status event: no status")
	}
	return model.ChangeEvent{ID: evt.Status.ID, IsOpen: evt.Status.IsOpen, UpdatedAt: evt.Status.UpdatedAt}, nil
}

// Event types

type StatusUpdated struct {
	Status *model.ShopStatus `json:"status"`
	Meta
}

type MenuCreated struct {
	Item *model.MenuItem `json:"item"`
	Meta
}

type MenuUpdated struct {
	Item    *model.MenuItem `json:"item"`
	Changes map[string]any  `json:"changes"` // field name -> new value
	Meta
}

type MenuDeleted struct {
	ItemID int64 `json:"item_id"`
	Meta
}

type GalleryCreated struct {
	Photo *model.Photo `json:"photo"`
	Meta
}

type GalleryDeleted struct {
	PhotoID int64 `json:"photo_id"`
	Meta
}

type HeroUpdated struct {
	Hero *model.Hero `json:"hero"`
	Meta
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
