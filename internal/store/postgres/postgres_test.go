package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var menuRowColumns = []string{
	"id", "name", "price", "description", "category", "best_seller", "image_url", "created_at", "updated_at",
}

func TestQueryGetStatus(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM shop_status WHERE id = \\$1").WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_open", "updated_at"}).AddRow(1, true, now))

	st, err := queryGetStatus(context.Background(), db, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID != 1 || !st.IsOpen || !st.UpdatedAt.Equal(now) {
		t.Fatalf("got %+v", st)
	}
}

func TestQueryGetStatus_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM shop_status WHERE id = \\$1").WithArgs(int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetStatus(context.Background(), db, 1)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE shop_status SET is_open = \$2, updated_at = GREATEST\(clock_timestamp\(\), updated_at \+ interval '1 microsecond'\)`).
		WithArgs(int64(1), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_open", "updated_at"}).AddRow(1, false, now))

	st, err := queryUpdateStatus(context.Background(), db, 1, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.IsOpen {
		t.Fatal("expected is_open=false")
	}
}

func TestQueryUpdateStatus_MissingRowIsNotCreated(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE shop_status SET is_open = \\$2").WithArgs(int64(7), true).
		WillReturnError(sql.ErrNoRows)

	_, err := queryUpdateStatus(context.Background(), db, 7, true)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryCreateMenuItem(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	item := &model.MenuItem{Name: "Cold Coffee", Price: 180, Category: "Coffee", BestSeller: true}
	mock.ExpectQuery("INSERT INTO menu_items").
		WithArgs("Cold Coffee", 180.0, "", "Coffee", true, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	if err := queryCreateMenuItem(context.Background(), db, item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != 42 || !item.CreatedAt.Equal(now) {
		t.Fatalf("got id=%d created_at=%v", item.ID, item.CreatedAt)
	}
}

func TestQueryGetMenuItem_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM menu_items WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetMenuItem(context.Background(), db, 9)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryListMenuItems(t *testing.T) {
	now := time.Now().UTC()

	t.Run("no filter", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(menuRowColumns).
			AddRow(2, "Latte", 150.0, "", "Coffee", false, "", now, now).
			AddRow(1, "Oreo Shake", 200.0, "thick", "Milk Shakes", true, "", now, now)
		mock.ExpectQuery("SELECT .+ FROM menu_items ORDER BY created_at DESC, id DESC$").
			WillReturnRows(rows)

		items, err := queryListMenuItems(context.Background(), db, model.MenuFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 || items[1].Name != "Oreo Shake" || !items[1].BestSeller {
			t.Fatalf("got %+v", items)
		}
	})

	t.Run("category limit offset", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .+ FROM menu_items WHERE category = \\$1 ORDER BY .+ LIMIT \\$2 OFFSET \\$3").
			WithArgs("Coffee", 10, 20).
			WillReturnRows(sqlmock.NewRows(menuRowColumns))

		items, err := queryListMenuItems(context.Background(), db, model.MenuFilter{Category: "Coffee", Limit: 10, Offset: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 {
			t.Fatalf("expected no items, got %d", len(items))
		}
	})
}

func TestQueryUpdateMenuItem_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	item := &model.MenuItem{ID: 5, Name: "Mocha", Price: 160, Category: "Coffee"}
	mock.ExpectQuery("UPDATE menu_items").
		WithArgs(int64(5), "Mocha", 160.0, "", "Coffee", false, "").
		WillReturnError(sql.ErrNoRows)

	if err := queryUpdateMenuItem(context.Background(), db, item); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryDeleteMenuItem(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM menu_items WHERE id = \\$1").WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM menu_items WHERE id = \\$1").WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteMenuItem(context.Background(), db, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := queryDeleteMenuItem(context.Background(), db, 4); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryListCategories(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT DISTINCT category FROM menu_items").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Breakfast").AddRow("Coffee"))

	cats, err := queryListCategories(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 2 || cats[0] != "Breakfast" {
		t.Fatalf("got %v", cats)
	}
}

func TestQueryPhotos(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	p := &model.Photo{ImageURL: "https://img.example/a.jpg", Caption: "patio"}
	mock.ExpectQuery("INSERT INTO gallery_photos").WithArgs(p.ImageURL, "patio").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))
	mock.ExpectQuery("SELECT .+ FROM gallery_photos ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_url", "caption", "created_at"}).
			AddRow(11, p.ImageURL, "patio", now))
	mock.ExpectExec("DELETE FROM gallery_photos WHERE id = \\$1").WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	if err := queryCreatePhoto(ctx, db, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != 11 {
		t.Fatalf("expected id=11, got %d", p.ID)
	}
	photos, err := queryListPhotos(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(photos) != 1 || photos[0].Caption != "patio" {
		t.Fatalf("got %+v", photos)
	}
	if err := queryDeletePhoto(ctx, db, 11); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryHero(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	h := &model.Hero{ID: model.HeroRowID, Title: "Fresh brews", Subtitle: "since 2019"}
	mock.ExpectQuery("INSERT INTO hero .+ ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(int64(3), "Fresh brews", "since 2019", "").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectQuery("SELECT .+ FROM hero WHERE id = \\$1").WithArgs(int64(3)).
		WillReturnError(sql.ErrNoRows)

	ctx := context.Background()
	if err := queryUpsertHero(ctx, db, h); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !h.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at = %v", h.UpdatedAt)
	}
	if _, err := queryGetHero(ctx, db, 3); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryRecordEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	event := &model.Event{
		Topic: "cafe.status.updated", RowID: 1, Actor: "admin",
		Payload: json.RawMessage(`{"status":{"id":1,"is_open":true}}`),
	}
	mock.ExpectQuery("INSERT INTO events").
		WithArgs("cafe.status.updated", int64(1), "admin", []byte(`{"status":{"id":1,"is_open":true}}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

	if err := queryRecordEvent(context.Background(), db, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != 1 {
		t.Fatalf("expected id=1, got %d", event.ID)
	}
}

func TestQueryListEvents(t *testing.T) {
	now := time.Now().UTC()
	cols := []string{"id", "topic", "row_id", "actor", "payload", "created_at"}

	t.Run("by topic", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows(cols).
			AddRow(2, "cafe.status.updated", 1, "admin", []byte(`{}`), now).
			AddRow(1, "cafe.status.updated", 1, "", []byte(`{}`), now)
		mock.ExpectQuery("SELECT .+ FROM events WHERE topic = \\$1").
			WithArgs("cafe.status.updated", 10).WillReturnRows(rows)

		evts, err := queryListEvents(context.Background(), db, "cafe.status.updated", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(evts) != 2 || evts[0].ID != 2 || evts[0].Actor != "admin" {
			t.Fatalf("got %+v", evts)
		}
	})

	t.Run("all topics default limit", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .+ FROM events ORDER BY id DESC LIMIT \\$1").
			WithArgs(defaultEventLimit).WillReturnRows(sqlmock.NewRows(cols))

		if _, err := queryListEvents(context.Background(), db, "", 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestClampLimit(t *testing.T) {
	for _, tc := range []struct{ in, want int }{
		{0, defaultEventLimit},
		{-3, defaultEventLimit},
		{25, 25},
		{100000, maxEventLimit},
	} {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE shop_status").WithArgs(int64(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_open", "updated_at"}).AddRow(1, true, now))
	mock.ExpectQuery("INSERT INTO events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, now))
	mock.ExpectCommit()

	s := NewWithDB(db)
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		if _, err := tx.UpdateStatus(context.Background(), 1, true); err != nil {
			return err
		}
		return tx.RecordEvent(context.Background(), &model.Event{Topic: "cafe.status.updated", RowID: 1, Payload: json.RawMessage(`{}`)})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE shop_status").WithArgs(int64(1), true).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	s := NewWithDB(db)
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		_, err := tx.UpdateStatus(context.Background(), 1, true)
		return err
	})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
