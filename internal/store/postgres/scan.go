package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEntry scans a single row into a model.Entry.
// The row must contain columns in the order defined by entryColumns.
func scanEntry(row scannable) (*model.Entry, error) {
	var e model.Entry
	if err := row.Scan(&e.ID, &e.Title, &e.Author, &e.Date, &e.HTML); err != nil {
		return nil, err
	}
	return &e, nil
}

// scanUser scans a single row into a model.User.
// The row must contain columns in the order defined by userColumns.
func scanUser(row scannable) (*model.User, error) {
	var (
		u        model.User
		portrait sql.NullString
		csrf     sql.NullString
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &portrait, &u.IsFavorite, &csrf); err != nil {
		return nil, err
	}
	if portrait.Valid {
		p := portrait.String
		u.PortraitImg = &p
	}
	u.CSRF = csrf.String
	return &u, nil
}

// nullString converts a possibly nil string pointer to sql.NullString.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
