package postgres

import (
	"encoding/json"

	"github.com/brewco/cafe/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanStatus scans a row in statusColumns order.
func scanStatus(row scannable) (*model.ShopStatus, error) {
	var st model.ShopStatus
	if err := row.Scan(&st.ID, &st.IsOpen, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// scanMenuItem scans a row in menuColumns order.
func scanMenuItem(row scannable) (*model.MenuItem, error) {
	var m model.MenuItem
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Price,
		&m.Description,
		&m.Category,
		&m.BestSeller,
		&m.ImageURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanPhoto(row scannable) (*model.Photo, error) {
	var p model.Photo
	if err := row.Scan(&p.ID, &p.ImageURL, &p.Caption, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanHero(row scannable) (*model.Hero, error) {
	var h model.Hero
	if err := row.Scan(&h.ID, &h.Title, &h.Subtitle, &h.ImageURL, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func scanEvent(row scannable) (*model.Event, error) {
	var (
		e       model.Event
		payload []byte
	)
	if err := row.Scan(&e.ID, &e.Topic, &e.RowID, &e.Actor, &payload, &e.CreatedAt); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}
