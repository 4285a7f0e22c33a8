package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/devjournal/internal/idgen"
	"github.com/alfredjeanlab/devjournal/internal/model"
)

// entryColumns is the column list used for SELECT and RETURNING on entries.
const entryColumns = `id, title, author, date, html`

// userColumns is the column list used for SELECT and RETURNING on users.
const userColumns = `id, fname, lname, portrait_img, is_favorite, csrf`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// maxInsertAttempts bounds id regeneration when an insert collides.
const maxInsertAttempts = 8

func queryListEntries(ctx context.Context, db executor) ([]*model.Entry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// queryAppendEntry inserts e under a fresh id. A colliding id makes the
// insert return no row, in which case another id is drawn.
func queryAppendEntry(ctx context.Context, db executor, e *model.Entry) (*model.Entry, error) {
	for range maxInsertAttempts {
		id, err := idgen.Generate()
		if err != nil {
			return nil, err
		}
		row := db.QueryRowContext(ctx, `
			INSERT INTO entries (id, title, author, date, html)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
			RETURNING `+entryColumns,
			id, e.Title, e.Author, e.Date, e.HTML,
		)
		created, err := scanEntry(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, idgen.ErrExhausted
}

func queryRemoveEntry(ctx context.Context, db executor, id string) (*model.Entry, error) {
	row := db.QueryRowContext(ctx, `DELETE FROM entries WHERE id = $1 RETURNING `+entryColumns, id)
	return scanEntry(row)
}

// queryUpdateEntry applies patch; NULL arguments keep the stored value.
func queryUpdateEntry(ctx context.Context, db executor, id string, patch model.EntryPatch) (*model.Entry, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE entries SET
			title = COALESCE($2, title),
			author = COALESCE($3, author),
			date = COALESCE($4, date),
			html = COALESCE($5, html)
		WHERE id = $1
		RETURNING `+entryColumns,
		id,
		nullString(patch.Title),
		nullString(patch.Author),
		nullString(patch.Date),
		nullString(patch.HTML),
	)
	return scanEntry(row)
}

func queryListUsers(ctx context.Context, db executor) ([]*model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func queryAddUser(ctx context.Context, db executor, u *model.User) (*model.User, error) {
	for range maxInsertAttempts {
		id, err := idgen.Generate()
		if err != nil {
			return nil, err
		}
		row := db.QueryRowContext(ctx, `
			INSERT INTO users (id, fname, lname, portrait_img, is_favorite)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
			RETURNING `+userColumns,
			id, u.FirstName, u.LastName, nullString(u.PortraitImg), u.IsFavorite,
		)
		created, err := scanUser(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, idgen.ErrExhausted
}

func queryRemoveUser(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryToggleFavorite(ctx context.Context, db executor, id string) (*model.User, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE users SET is_favorite = NOT is_favorite
		WHERE id = $1
		RETURNING `+userColumns, id)
	return scanUser(row)
}
