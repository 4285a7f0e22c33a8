package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

// handleHome handles GET /.
func (s *JournalServer) handleHome(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeInternalText(w, "list users", err)
		return
	}
	s.render(w, "home.html", viewData{Users: users})
}

// handleUsers handles GET /users.
func (s *JournalServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeInternalText(w, "list users", err)
		return
	}
	s.render(w, "users.html", viewData{Users: users})
}

// handleSignupForm handles GET /signup.
func (s *JournalServer) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	token, err := s.csrf.Token(w, r)
	if err != nil {
		writeInternalText(w, "issue csrf token", err)
		return
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeInternalText(w, "list users", err)
		return
	}
	s.render(w, "signup.html", viewData{Users: users, CSRFToken: token})
}

// handleListUsersJSON handles GET /api/users.
func (s *JournalServer) handleListUsersJSON(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err, "", "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleCreateUser handles POST /users/create, a multipart form with fname,
// lname and an optional avatar file.
func (s *JournalServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	portrait, err := s.saveAvatar(r)
	if err != nil {
		writeInternalText(w, "save avatar", err)
		return
	}

	created, err := s.store.AddUser(r.Context(), &model.User{
		FirstName:   r.FormValue("fname"),
		LastName:    r.FormValue("lname"),
		PortraitImg: portrait,
	})
	if err != nil {
		writeInternalText(w, "add user", err)
		return
	}

	s.publish(r.Context(), events.TopicUserCreated, events.UserCreated{User: created})

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// saveAvatar stores the avatar upload, if any, under a generated name that
// keeps the original extension. It returns nil when no file was sent.
func (s *JournalServer) saveAvatar(r *http.Request) (*string, error) {
	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	defer file.Close()

	name := uploadName(header)
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(s.uploadsDir, name))
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("close upload: %w", err)
	}
	return &name, nil
}

// uploadName is a random hex name plus the client file's extension.
func uploadName(h *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(h.Filename)))
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

// handleDeleteUser handles POST /users/delete/{id}.
func (s *JournalServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.RemoveUser(r.Context(), id); err != nil {
		writeStoreText(w, err, "remove user")
		return
	}

	s.publish(r.Context(), events.TopicUserDeleted, events.UserDeleted{UserID: id})

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// handleFavoriteUser handles POST /users/favorite/{id}.
func (s *JournalServer) handleFavoriteUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.ToggleFavorite(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreText(w, err, "toggle favorite")
		return
	}

	s.publish(r.Context(), events.TopicUserFavorited, events.UserFavorited{UserID: u.ID, IsFavorite: u.IsFavorite})

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// writeStoreText is writeStoreError for the form routes, which answer in
// plain text.
func writeStoreText(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeInternalText(w, op, err)
}

func writeInternalText(w http.ResponseWriter, op string, err error) {
	slog.Error("request failed", "op", op, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
