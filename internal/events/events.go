package events

import (
	"context"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// Event topic constants
const (
	TopicEntryCreated = "journal.entry.created"
	TopicEntryUpdated = "journal.entry.updated"
	TopicEntryDeleted = "journal.entry.deleted"

	TopicUserCreated   = "journal.user.created"
	TopicUserDeleted   = "journal.user.deleted"
	TopicUserFavorited = "journal.user.favorited"

	// Emitted after the welcome email was accepted by the mail relay.
	TopicSignupSent = "journal.signup.sent"
)

// Event types

type EntryCreated struct {
	Entry *model.Entry `json:"entry"`
}

type EntryUpdated struct {
	Entry   *model.Entry   `json:"entry"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type EntryDeleted struct {
	EntryID string `json:"entry_id"`
}

type UserCreated struct {
	User *model.User `json:"user"`
}

type UserDeleted struct {
	UserID string `json:"user_id"`
}

type UserFavorited struct {
	UserID     string `json:"user_id"`
	IsFavorite bool   `json:"isFavorite"`
}

// SignupSent carries only the recipient domain; addresses stay out of the bus.
type SignupSent struct {
	Domain string `json:"domain"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
