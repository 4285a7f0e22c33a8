package metrics

import (
	"context"
	"time"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

// instrumentedStore counts and times every call to the wrapped store.
type instrumentedStore struct {
	store.Store
	m *Metrics
}

// InstrumentStore wraps s so that each operation is recorded on m.
func InstrumentStore(s store.Store, m *Metrics) store.Store {
	return &instrumentedStore{Store: s, m: m}
}

func (s *instrumentedStore) observe(op string) func(error) {
	start := time.Now()
	return func(err error) { s.m.ObserveStore(op, start, err) }
}

func (s *instrumentedStore) ListEntries(ctx context.Context) ([]*model.Entry, error) {
	done := s.observe("list_entries")
	entries, err := s.Store.ListEntries(ctx)
	done(err)
	return entries, err
}

func (s *instrumentedStore) AppendEntry(ctx context.Context, e *model.Entry) (*model.Entry, error) {
	done := s.observe("append_entry")
	created, err := s.Store.AppendEntry(ctx, e)
	done(err)
	return created, err
}

func (s *instrumentedStore) RemoveEntry(ctx context.Context, id string) (*model.Entry, error) {
	done := s.observe("remove_entry")
	removed, err := s.Store.RemoveEntry(ctx, id)
	done(err)
	return removed, err
}

func (s *instrumentedStore) UpdateEntry(ctx context.Context, id string, patch model.EntryPatch) (*model.Entry, error) {
	done := s.observe("update_entry")
	updated, err := s.Store.UpdateEntry(ctx, id, patch)
	done(err)
	return updated, err
}

func (s *instrumentedStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	done := s.observe("list_users")
	users, err := s.Store.ListUsers(ctx)
	done(err)
	return users, err
}

func (s *instrumentedStore) AddUser(ctx context.Context, u *model.User) (*model.User, error) {
	done := s.observe("add_user")
	created, err := s.Store.AddUser(ctx, u)
	done(err)
	return created, err
}

func (s *instrumentedStore) RemoveUser(ctx context.Context, id string) error {
	done := s.observe("remove_user")
	err := s.Store.RemoveUser(ctx, id)
	done(err)
	return err
}

func (s *instrumentedStore) ToggleFavorite(ctx context.Context, id string) (*model.User, error) {
	done := s.observe("toggle_favorite")
	u, err := s.Store.ToggleFavorite(ctx, id)
	done(err)
	return u, err
}
