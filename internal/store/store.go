// Package store defines the persistence interfaces for journal entries and users.
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// ErrNotFound is returned when no record carries the requested id.
// Callers match it with errors.Is.
var ErrNotFound = errors.New("not found")

// EntryStore holds the ordered sequence of journal entries.
type EntryStore interface {
	// ListEntries returns every entry in insertion order.
	ListEntries(ctx context.Context) ([]*model.Entry, error)
	// AppendEntry discards any id on e, assigns a fresh one, appends and
	// returns the stored record.
	AppendEntry(ctx context.Context, e *model.Entry) (*model.Entry, error)
	// RemoveEntry excises the first entry with the given id and returns it.
	RemoveEntry(ctx context.Context, id string) (*model.Entry, error)
	// UpdateEntry merges patch into the entry with the given id.
	UpdateEntry(ctx context.Context, id string, patch model.EntryPatch) (*model.Entry, error)
}

// UserStore holds the ordered sequence of users.
type UserStore interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	AddUser(ctx context.Context, u *model.User) (*model.User, error)
	RemoveUser(ctx context.Context, id string) error
	// ToggleFavorite flips the favorite flag and returns the updated user.
	ToggleFavorite(ctx context.Context, id string) (*model.User, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	EntryStore
	UserStore

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// IndexOfEntry returns the position of the first entry with id, or -1.
func IndexOfEntry(entries []*model.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// IndexOfUser returns the position of the first user with id, or -1.
func IndexOfUser(users []*model.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// CloneEntries copies every entry so callers cannot alias stored records.
func CloneEntries(entries []*model.Entry) []*model.Entry {
	out := make([]*model.Entry, len(entries))
	for i, e := range entries {
		c := *e
		out[i] = &c
	}
	return out
}

// CloneUsers copies every user so callers cannot alias stored records.
func CloneUsers(users []*model.User) []*model.User {
	out := make([]*model.User, len(users))
	for i, u := range users {
		c := *u
		if u.PortraitImg != nil {
			p := *u.PortraitImg
			c.PortraitImg = &p
		}
		out[i] = &c
	}
	return out
}
