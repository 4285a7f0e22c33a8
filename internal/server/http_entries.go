package server

import (
	"encoding/json"
	"net/http"

	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/model"
)

// entryInput is the body of POST /api/blog. Any id field is ignored.
type entryInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Date   string `json:"date"`
	HTML   string `json:"html"`
}

// handleListEntries handles GET /api/blog.
func (s *JournalServer) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeStoreError(w, err, "", "list entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCreateEntry handles POST /api/blog.
func (s *JournalServer) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var in entryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date := in.Date
	if date == "" {
		date = model.FormatDate(s.now())
	}
	created, err := s.store.AppendEntry(r.Context(), &model.Entry{
		Title:  in.Title,
		Author: in.Author,
		Date:   date,
		HTML:   in.HTML,
	})
	if err != nil {
		writeStoreError(w, err, "", "append entry")
		return
	}

	s.publish(r.Context(), events.TopicEntryCreated, events.EntryCreated{Entry: created})

	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateEntry handles PUT /api/blog/{id}.
func (s *JournalServer) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated, err := s.store.UpdateEntry(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, err, "Entry not found", "update entry")
		return
	}

	s.publish(r.Context(), events.TopicEntryUpdated, events.EntryUpdated{Entry: updated, Changes: patch.Changes()})

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteEntry handles DELETE /api/blog/{id}.
func (s *JournalServer) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, err := s.store.RemoveEntry(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Entry not found", "remove entry")
		return
	}

	s.publish(r.Context(), events.TopicEntryDeleted, events.EntryDeleted{EntryID: id})

	writeJSON(w, http.StatusOK, removed)
}
