// Package client provides the interface the journal CLI uses to talk to a
// running server, and an HTTP implementation of it.
package client

import (
	"context"
	"io"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// JournalClient is what the CLI commands need from a journal server.
type JournalClient interface {
	// Entries
	ListEntries(ctx context.Context) ([]*model.Entry, error)
	CreateEntry(ctx context.Context, req *CreateEntryRequest) (*model.Entry, error)
	UpdateEntry(ctx context.Context, id string, patch *model.EntryPatch) (*model.Entry, error)
	DeleteEntry(ctx context.Context, id string) (*model.Entry, error)

	// Users
	ListUsers(ctx context.Context) ([]*model.User, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) error
	ToggleFavorite(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error

	// Signup relays the welcome email and returns the server's message.
	Signup(ctx context.Context, email, name string) (string, error)

	Health(ctx context.Context) (string, error)

	Close() error
}

// CreateEntryRequest is the body of an entry creation. An empty Date is
// filled in by the server.
type CreateEntryRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Date   string `json:"date,omitempty"`
	HTML   string `json:"html"`
}

// CreateUserRequest describes a new user. Avatar is optional; AvatarName
// supplies its file name (and therefore its extension).
type CreateUserRequest struct {
	FirstName  string
	LastName   string
	Avatar     io.Reader
	AvatarName string
}
