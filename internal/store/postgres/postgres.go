// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	return queryListEntries(ctx, s.db)
}

func (s *PostgresStore) AppendEntry(ctx context.Context, e *model.Entry) (*model.Entry, error) {
	return queryAppendEntry(ctx, s.db, e)
}

func (s *PostgresStore) RemoveEntry(ctx context.Context, id string) (*model.Entry, error) {
	return notFound(queryRemoveEntry(ctx, s.db, id))
}

func (s *PostgresStore) UpdateEntry(ctx context.Context, id string, patch model.EntryPatch) (*model.Entry, error) {
	return notFound(queryUpdateEntry(ctx, s.db, id, patch))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	return queryListUsers(ctx, s.db)
}

func (s *PostgresStore) AddUser(ctx context.Context, u *model.User) (*model.User, error) {
	return queryAddUser(ctx, s.db, u)
}

func (s *PostgresStore) RemoveUser(ctx context.Context, id string) error {
	err := queryRemoveUser(ctx, s.db, id)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	return err
}

func (s *PostgresStore) ToggleFavorite(ctx context.Context, id string) (*model.User, error) {
	return notFound(queryToggleFavorite(ctx, s.db, id))
}

// notFound maps sql.ErrNoRows onto store.ErrNotFound.
func notFound[T any](v *T, err error) (*T, error) {
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return v, err
}
