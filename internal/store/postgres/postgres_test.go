package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
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

var (
	entryRowColumns = []string{"id", "title", "author", "date", "html"}
	userRowColumns  = []string{"id", "fname", "lname", "portrait_img", "is_favorite", "csrf"}
)

func strPtr(s string) *string { return &s }

func TestScanUser_NullPortrait(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM users ORDER BY seq").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("JEbxp", "Mark", "Montoya", "fc730c501970ba38832ca14974c76357.jpg", false, "tok").
			AddRow("abcde", "Ada", "Lovelace", nil, true, nil))

	users, err := queryListUsers(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].Portrait() != "fc730c501970ba38832ca14974c76357.jpg" || users[0].CSRF != "tok" {
		t.Errorf("first user = %+v", users[0])
	}
	if users[1].PortraitImg != nil || !users[1].IsFavorite || users[1].CSRF != "" {
		t.Errorf("second user = %+v", users[1])
	}
}

func TestQueryListEntries(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id, title, author, date, html FROM entries ORDER BY seq").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("abc12", "Getting Started with Node.js", "Sarah Johnson", "2024-01-15T14:30:00.000Z", "<p>a</p>").
			AddRow("def34", "Understanding React Hooks", "Mike Chen", "2024-01-20T09:15:00.000Z", "<p>b</p>"))

	entries, err := queryListEntries(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "abc12" || entries[1].Author != "Mike Chen" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestQueryListEntries_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM entries").WillReturnRows(sqlmock.NewRows(entryRowColumns))

	entries, err := queryListEntries(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestQueryAppendEntry(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO entries").
		WithArgs(sqlmock.AnyArg(), "T", "A", "2024-02-01T00:00:00.000Z", "<p>x</p>").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("Xy7Qa", "T", "A", "2024-02-01T00:00:00.000Z", "<p>x</p>"))

	created, err := queryAppendEntry(context.Background(), db, &model.Entry{
		ID: "ignored", Title: "T", Author: "A", Date: "2024-02-01T00:00:00.000Z", HTML: "<p>x</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "Xy7Qa" || created.Title != "T" {
		t.Fatalf("created = %+v", created)
	}
}

func TestQueryAppendEntry_RetriesOnCollision(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO entries").WillReturnRows(sqlmock.NewRows(entryRowColumns))
	mock.ExpectQuery("INSERT INTO entries").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).AddRow("Zz9Zz", "T", "", "", ""))

	created, err := queryAppendEntry(context.Background(), db, &model.Entry{Title: "T"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "Zz9Zz" {
		t.Fatalf("id = %q", created.ID)
	}
}

func TestQueryUpdateEntry(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE entries SET").
		WithArgs("def34", "Renamed", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("def34", "Renamed", "Mike Chen", "2024-01-20T09:15:00.000Z", "<p>b</p>"))

	updated, err := queryUpdateEntry(context.Background(), db, "def34", model.EntryPatch{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Renamed" || updated.Author != "Mike Chen" {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestQueryRemoveEntry_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("DELETE FROM entries WHERE id = \\$1").WithArgs("nonexistent").
		WillReturnRows(sqlmock.NewRows(entryRowColumns))

	_, err := queryRemoveEntry(context.Background(), db, "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryAddUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Ada", "Lovelace", "ada.png", false).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("Qq1Qq", "Ada", "Lovelace", "ada.png", false, nil))

	created, err := queryAddUser(context.Background(), db, &model.User{FirstName: "Ada", LastName: "Lovelace", PortraitImg: strPtr("ada.png")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "Qq1Qq" || created.Portrait() != "ada.png" {
		t.Fatalf("created = %+v", created)
	}
}

func TestQueryRemoveUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs("JEbxp").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryRemoveUser(context.Background(), db, "JEbxp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryRemoveUser_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryRemoveUser(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryToggleFavorite(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("UPDATE users SET is_favorite = NOT is_favorite").WithArgs("eixJM").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("eixJM", "Lily Jo", "Canine", nil, true, nil))

	u, err := queryToggleFavorite(context.Background(), db, "eixJM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !u.IsFavorite {
		t.Fatal("expected favorite to be set")
	}
}

func TestStore_MapsNoRowsToNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}
	ctx := context.Background()

	mock.ExpectQuery("DELETE FROM entries").WillReturnRows(sqlmock.NewRows(entryRowColumns))
	mock.ExpectQuery("UPDATE entries SET").WillReturnRows(sqlmock.NewRows(entryRowColumns))
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("UPDATE users SET").WillReturnRows(sqlmock.NewRows(userRowColumns))

	if _, err := s.RemoveEntry(ctx, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("RemoveEntry err = %v", err)
	}
	if _, err := s.UpdateEntry(ctx, "x", model.EntryPatch{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateEntry err = %v", err)
	}
	if err := s.RemoveUser(ctx, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("RemoveUser err = %v", err)
	}
	if _, err := s.ToggleFavorite(ctx, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ToggleFavorite err = %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{
		"migrations/000001_init.up.sql",
		"migrations/000001_init.down.sql",
		"migrations/000002_seed.up.sql",
		"migrations/000002_seed.down.sql",
	} {
		if _, err := migrationsFS.ReadFile(name); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
