package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/brewco/cafe/internal/model"
)

const (
	statusColumns = `id, is_open, updated_at`
	menuColumns   = `id, name, price, description, category, best_seller, image_url, created_at, updated_at`
	photoColumns  = `id, image_url, caption, created_at`
	heroColumns   = `id, title, subtitle, image_url, updated_at`
	eventColumns  = `id, topic, row_id, actor, payload, created_at`

	defaultEventLimit = 50
	maxEventLimit     = 500
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// notFound maps sql.ErrNoRows onto model.ErrNotFound.
func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return err
}

// expectOneRow turns a zero-row DELETE/UPDATE into model.ErrNotFound.
func expectOneRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, model.ErrNotFound)
	}
	return nil
}

// --- status ---

func queryGetStatus(ctx context.Context, db executor, id int64) (*model.ShopStatus, error) {
	row := db.QueryRowContext(ctx, `SELECT `+statusColumns+` FROM shop_status WHERE id = $1`, id)
	st, err := scanStatus(row)
	if err != nil {
		return nil, notFound(err, "shop status", id)
	}
	return st, nil
}

// queryUpdateStatus mutates the provisioned row only; it never inserts.
// updated_at strictly increases per row in commit order: the row lock
// serializes writers and the stamp is taken after the lock is held.
func queryUpdateStatus(ctx context.Context, db executor, id int64, isOpen bool) (*model.ShopStatus, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE shop_status
		SET is_open = $2,
		    updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING `+statusColumns,
		id, isOpen,
	)
	st, err := scanStatus(row)
	if err != nil {
		return nil, notFound(err, "shop status", id)
	}
	return st, nil
}

// --- menu ---

func queryCreateMenuItem(ctx context.Context, db executor, m *model.MenuItem) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO menu_items (name, price, description, category, best_seller, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		m.Name, m.Price, m.Description, m.Category, m.BestSeller, m.ImageURL,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func queryGetMenuItem(ctx context.Context, db executor, id int64) (*model.MenuItem, error) {
	row := db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id)
	m, err := scanMenuItem(row)
	if err != nil {
		return nil, notFound(err, "menu item", id)
	}
	return m, nil
}

func queryListMenuItems(ctx context.Context, db executor, filter model.MenuFilter) ([]*model.MenuItem, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + menuColumns + ` FROM menu_items`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func queryUpdateMenuItem(ctx context.Context, db executor, m *model.MenuItem) error {
	err := db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET name = $2, price = $3, description = $4, category = $5,
			best_seller = $6, image_url = $7, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Price, m.Description, m.Category, m.BestSeller, m.ImageURL,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return notFound(err, "menu item", m.ID)
}

func queryDeleteMenuItem(ctx context.Context, db executor, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "menu item", id)
}

func queryListCategories(ctx context.Context, db executor) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT DISTINCT category FROM menu_items ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// --- gallery ---

func queryCreatePhoto(ctx context.Context, db executor, p *model.Photo) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO gallery_photos (image_url, caption)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		p.ImageURL, p.Caption,
	).Scan(&p.ID, &p.CreatedAt)
}

func queryListPhotos(ctx context.Context, db executor) ([]*model.Photo, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+photoColumns+` FROM gallery_photos ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*model.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func queryDeletePhoto(ctx context.Context, db executor, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM gallery_photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "photo", id)
}

// --- hero ---

func queryGetHero(ctx context.Context, db executor, id int64) (*model.Hero, error) {
	row := db.QueryRowContext(ctx, `SELECT `+heroColumns+` FROM hero WHERE id = $1`, id)
	h, err := scanHero(row)
	if err != nil {
		return nil, notFound(err, "hero", id)
	}
	return h, nil
}

func queryUpsertHero(ctx context.Context, db executor, h *model.Hero) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO hero (id, title, subtitle, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, subtitle = EXCLUDED.subtitle,
			image_url = EXCLUDED.image_url, updated_at = now()
		RETURNING updated_at`,
		h.ID, h.Title, h.Subtitle, h.ImageURL,
	).Scan(&h.UpdatedAt)
}

// --- events ---

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, row_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.RowID, e.Actor, []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

// queryListEvents returns the newest events first. An empty topic lists all.
func queryListEvents(ctx context.Context, db executor, topic string, limit int) ([]*model.Event, error) {
	limit = clampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if topic == "" {
		rows, err = db.QueryContext(ctx, `
			SELECT `+eventColumns+` FROM events
			ORDER BY id DESC LIMIT $1`, limit)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+eventColumns+` FROM events
			WHERE topic = $1
			ORDER BY id DESC LIMIT $2`, topic, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evts []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		evts = append(evts, e)
	}
	return evts, rows.Err()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultEventLimit
	case limit > maxEventLimit:
		return maxEventLimit
	}
	return limit
}
