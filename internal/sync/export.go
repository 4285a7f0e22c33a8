// Package sync periodically exports journal snapshots to backup
// destinations.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/devjournal/internal/model"
)

// FormatVersion is written in every snapshot header.
const FormatVersion = "1"

// Source is the read side of the journal stores.
type Source interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	ListEntries(ctx context.Context) ([]*model.Entry, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	UserCount  int       `json:"user_count"`
	EntryCount int       `json:"entry_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes a header line followed by one "user" record per user
// and one "entry" record per entry, each in store order.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	return exportAt(ctx, src, w, time.Now().UTC())
}

func exportAt(ctx context.Context, src Source, w io.Writer, at time.Time) error {
	users, err := src.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	entries, err := src.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    FormatVersion,
		Type:       "header",
		Timestamp:  at,
		UserCount:  len(users),
		EntryCount: len(entries),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, u := range users {
		if err := enc.Encode(record{Type: "user", Data: u}); err != nil {
			return fmt.Errorf("encode user %s: %w", u.ID, err)
		}
	}
	for _, e := range entries {
		if err := enc.Encode(record{Type: "entry", Data: e}); err != nil {
			return fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
	}
	return nil
}
