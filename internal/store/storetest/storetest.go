// Package storetest holds behaviour checks shared by every store.Store
// implementation that can run without external services.
package storetest

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9]{5}$`)

// Run exercises s, which must start out holding the seed data.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("ListEntriesSeed", func(t *testing.T) { testListEntriesSeed(t, newStore(t)) })
	t.Run("AppendEntry", func(t *testing.T) { testAppendEntry(t, newStore(t)) })
	t.Run("UpdateEntryPartial", func(t *testing.T) { testUpdateEntryPartial(t, newStore(t)) })
	t.Run("UpdateEntryMissing", func(t *testing.T) { testUpdateEntryMissing(t, newStore(t)) })
	t.Run("RemoveEntry", func(t *testing.T) { testRemoveEntry(t, newStore(t)) })
	t.Run("RemoveEntryMissing", func(t *testing.T) { testRemoveEntryMissing(t, newStore(t)) })
	t.Run("ListedEntriesAreCopies", func(t *testing.T) { testListedEntriesAreCopies(t, newStore(t)) })
	t.Run("AddUser", func(t *testing.T) { testAddUser(t, newStore(t)) })
	t.Run("RemoveUser", func(t *testing.T) { testRemoveUser(t, newStore(t)) })
	t.Run("RemoveUserMissing", func(t *testing.T) { testRemoveUserMissing(t, newStore(t)) })
	t.Run("ToggleFavoriteTwice", func(t *testing.T) { testToggleFavoriteTwice(t, newStore(t)) })
	t.Run("ToggleFavoriteMissing", func(t *testing.T) { testToggleFavoriteMissing(t, newStore(t)) })
}

func entryIDs(t *testing.T, s store.Store) []string {
	t.Helper()
	entries, err := s.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func userIDs(t *testing.T, s store.Store) []string {
	t.Helper()
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func testListEntriesSeed(t *testing.T, s store.Store) {
	got := entryIDs(t, s)
	if want := []string{"abc12", "def34", "ghi56"}; !equalIDs(got, want) {
		t.Fatalf("entry ids = %v, want %v", got, want)
	}
}

func testAppendEntry(t *testing.T, s store.Store) {
	ctx := context.Background()
	before := entryIDs(t, s)

	created, err := s.AppendEntry(ctx, &model.Entry{
		ID: "abc12", Title: "T", Author: "A", Date: "2024-02-01T00:00:00.000Z", HTML: "<p>x</p>",
	})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if !idPattern.MatchString(created.ID) {
		t.Fatalf("id %q does not match %s", created.ID, idPattern)
	}
	for _, id := range before {
		if id == created.ID {
			t.Fatalf("id %q reused an existing id", created.ID)
		}
	}
	if created.Title != "T" || created.Author != "A" || created.HTML != "<p>x</p>" {
		t.Fatalf("created = %+v", created)
	}

	entries, err := s.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != len(before)+1 {
		t.Fatalf("len = %d, want %d", len(entries), len(before)+1)
	}
	if last := entries[len(entries)-1]; *last != *created {
		t.Fatalf("last entry = %+v, want %+v", last, created)
	}
}

func testUpdateEntryPartial(t *testing.T, s store.Store) {
	ctx := context.Background()
	title := "Renamed"
	updated, err := s.UpdateEntry(ctx, "def34", model.EntryPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if updated.ID != "def34" || updated.Title != "Renamed" || updated.Author != "Mike Chen" {
		t.Fatalf("updated = %+v", updated)
	}

	entries, err := s.ListEntries(ctx)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if entries[1].Title != "Renamed" || entries[1].Date != "2024-01-20T09:15:00.000Z" {
		t.Fatalf("stored entry = %+v", entries[1])
	}
}

func testUpdateEntryMissing(t *testing.T, s store.Store) {
	title := "x"
	before := entryIDs(t, s)
	if _, err := s.UpdateEntry(context.Background(), "zzzzz", model.EntryPatch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if after := entryIDs(t, s); !equalIDs(before, after) {
		t.Fatalf("entries changed: %v -> %v", before, after)
	}
}

func testRemoveEntry(t *testing.T, s store.Store) {
	removed, err := s.RemoveEntry(context.Background(), "def34")
	if err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if removed.ID != "def34" || removed.Title != "Understanding React Hooks" {
		t.Fatalf("removed = %+v", removed)
	}
	if got, want := entryIDs(t, s), []string{"abc12", "ghi56"}; !equalIDs(got, want) {
		t.Fatalf("entry ids = %v, want %v", got, want)
	}
}

func testRemoveEntryMissing(t *testing.T, s store.Store) {
	before := entryIDs(t, s)
	if _, err := s.RemoveEntry(context.Background(), "zzzzz"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if after := entryIDs(t, s); !equalIDs(before, after) {
		t.Fatalf("entries changed: %v -> %v", before, after)
	}
}

func testListedEntriesAreCopies(t *testing.T, s store.Store) {
	entries, err := s.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	entries[0].Title = "mutated"

	again, err := s.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if again[0].Title == "mutated" {
		t.Fatal("mutating a listed entry changed the store")
	}
}

func testAddUser(t *testing.T, s store.Store) {
	img := "portrait.png"
	created, err := s.AddUser(context.Background(), &model.User{ID: "JEbxp", FirstName: "Ada", LastName: "Lovelace", PortraitImg: &img})
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if !idPattern.MatchString(created.ID) || created.ID == "JEbxp" || created.ID == "eixJM" {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.IsFavorite || created.Portrait() != "portrait.png" {
		t.Fatalf("created = %+v", created)
	}
	got := userIDs(t, s)
	if len(got) != 3 || got[2] != created.ID {
		t.Fatalf("user ids = %v", got)
	}
}

func testRemoveUser(t *testing.T, s store.Store) {
	if err := s.RemoveUser(context.Background(), "JEbxp"); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if got, want := userIDs(t, s), []string{"eixJM"}; !equalIDs(got, want) {
		t.Fatalf("user ids = %v, want %v", got, want)
	}
}

func testRemoveUserMissing(t *testing.T, s store.Store) {
	if err := s.RemoveUser(context.Background(), "zzzzz"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if got, want := userIDs(t, s), []string{"JEbxp", "eixJM"}; !equalIDs(got, want) {
		t.Fatalf("user ids = %v, want %v", got, want)
	}
}

func testToggleFavoriteTwice(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.ToggleFavorite(ctx, "eixJM")
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if !first.IsFavorite {
		t.Fatal("first toggle should set favorite")
	}
	second, err := s.ToggleFavorite(ctx, "eixJM")
	if err != nil {
		t.Fatalf("ToggleFavorite: %v", err)
	}
	if second.IsFavorite {
		t.Fatal("second toggle should clear favorite")
	}
}

func testToggleFavoriteMissing(t *testing.T, s store.Store) {
	if _, err := s.ToggleFavorite(context.Background(), "zzzzz"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	for _, u := range users {
		if u.IsFavorite {
			t.Fatalf("user %s became favorite", u.ID)
		}
	}
}
