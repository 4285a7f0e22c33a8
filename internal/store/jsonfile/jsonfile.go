// Package jsonfile implements store.Store over two pretty-printed JSON
// documents, db.json for users and dbBlog.json for entries. Every mutation
// rewrites the affected document in full.
package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/alfredjeanlab/devjournal/internal/idgen"
	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

const (
	UsersFile   = "db.json"
	EntriesFile = "dbBlog.json"
)

// FileStore is a store.Store backed by JSON files in a directory.
type FileStore struct {
	dir string

	entryMu sync.Mutex
	entries document[model.Entry]

	userMu sync.Mutex
	users  document[model.User]
}

var _ store.Store = (*FileStore)(nil)

// Open prepares the documents in dir, writing seed data for any that are
// missing.
func Open(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create data dir %s", dir)
	}
	s := &FileStore{
		dir:     dir,
		entries: document[model.Entry]{path: filepath.Join(dir, EntriesFile), key: "posts", seed: store.SeedEntries},
		users:   document[model.User]{path: filepath.Join(dir, UsersFile), key: "users", seed: store.SeedUsers},
	}
	if _, err := s.entries.load(); err != nil {
		return nil, err
	}
	if _, err := s.users.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) ListEntries(_ context.Context) ([]*model.Entry, error) {
	s.entryMu.Lock()
	defer s.entryMu.Unlock()
	return s.entries.load()
}

func (s *FileStore) AppendEntry(_ context.Context, e *model.Entry) (*model.Entry, error) {
	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	entries, err := s.entries.load()
	if err != nil {
		return nil, err
	}
	id, err := idgen.GenerateUnique(func(id string) bool { return store.IndexOfEntry(entries, id) >= 0 })
	if err != nil {
		return nil, err
	}
	rec := *e
	rec.ID = id
	entries = append(entries, &rec)
	if err := s.entries.save(entries); err != nil {
		return nil, err
	}
	return entries[store.IndexOfEntry(entries, id)], nil
}

func (s *FileStore) RemoveEntry(_ context.Context, id string) (*model.Entry, error) {
	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	entries, err := s.entries.load()
	if err != nil {
		return nil, err
	}
	i := store.IndexOfEntry(entries, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	removed := entries[i]
	entries = append(entries[:i], entries[i+1:]...)
	if err := s.entries.save(entries); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *FileStore) UpdateEntry(_ context.Context, id string, patch model.EntryPatch) (*model.Entry, error) {
	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	entries, err := s.entries.load()
	if err != nil {
		return nil, err
	}
	i := store.IndexOfEntry(entries, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	updated := entries[i].Apply(patch)
	entries[i] = &updated
	if err := s.entries.save(entries); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FileStore) ListUsers(_ context.Context) ([]*model.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	return s.users.load()
}

func (s *FileStore) AddUser(_ context.Context, u *model.User) (*model.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.users.load()
	if err != nil {
		return nil, err
	}
	id, err := idgen.GenerateUnique(func(id string) bool { return store.IndexOfUser(users, id) >= 0 })
	if err != nil {
		return nil, err
	}
	rec := store.CloneUsers([]*model.User{u})[0]
	rec.ID = id
	users = append(users, rec)
	if err := s.users.save(users); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *FileStore) RemoveUser(_ context.Context, id string) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.users.load()
	if err != nil {
		return err
	}
	i := store.IndexOfUser(users, id)
	if i < 0 {
		return store.ErrNotFound
	}
	return s.users.save(append(users[:i], users[i+1:]...))
}

func (s *FileStore) ToggleFavorite(_ context.Context, id string) (*model.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.users.load()
	if err != nil {
		return nil, err
	}
	i := store.IndexOfUser(users, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	users[i].IsFavorite = !users[i].IsFavorite
	if err := s.users.save(users); err != nil {
		return nil, err
	}
	return users[i], nil
}

// Ping checks that the data directory is still reachable.
func (s *FileStore) Ping(context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return errors.Wrap(err, "data dir unavailable")
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
