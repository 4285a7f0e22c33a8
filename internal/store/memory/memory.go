// Package memory implements store.Store entirely in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/alfredjeanlab/devjournal/internal/idgen"
	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

// MemoryStore keeps entries and users in slices guarded by one mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries []*model.Entry
	users   []*model.User
}

var _ store.Store = (*MemoryStore)(nil)

// New returns a store holding the seed entries and users.
func New() *MemoryStore {
	return &MemoryStore{entries: store.SeedEntries(), users: store.SeedUsers()}
}

// NewEmpty returns a store with no records.
func NewEmpty() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ListEntries(_ context.Context) ([]*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.CloneEntries(s.entries), nil
}

func (s *MemoryStore) AppendEntry(_ context.Context, e *model.Entry) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := idgen.GenerateUnique(func(id string) bool { return store.IndexOfEntry(s.entries, id) >= 0 })
	if err != nil {
		return nil, err
	}
	rec := *e
	rec.ID = id
	s.entries = append(s.entries, &rec)

	out := rec
	return &out, nil
}

func (s *MemoryStore) RemoveEntry(_ context.Context, id string) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := store.IndexOfEntry(s.entries, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	removed := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return removed, nil
}

func (s *MemoryStore) UpdateEntry(_ context.Context, id string, patch model.EntryPatch) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := store.IndexOfEntry(s.entries, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	updated := s.entries[i].Apply(patch)
	s.entries[i] = &updated

	out := updated
	return &out, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.CloneUsers(s.users), nil
}

func (s *MemoryStore) AddUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := idgen.GenerateUnique(func(id string) bool { return store.IndexOfUser(s.users, id) >= 0 })
	if err != nil {
		return nil, err
	}
	rec := store.CloneUsers([]*model.User{u})[0]
	rec.ID = id
	s.users = append(s.users, rec)
	return store.CloneUsers([]*model.User{rec})[0], nil
}

func (s *MemoryStore) RemoveUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := store.IndexOfUser(s.users, id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return nil
}

func (s *MemoryStore) ToggleFavorite(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := store.IndexOfUser(s.users, id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	s.users[i].IsFavorite = !s.users[i].IsFavorite
	return store.CloneUsers(s.users[i : i+1])[0], nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
