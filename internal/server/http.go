package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/devjournal/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes and middleware.
func (s *JournalServer) NewHTTPHandler() http.Handler {
	protect := s.csrf.Protect

	mux := http.NewServeMux()

	// Server-rendered views.
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /users", s.handleUsers)
	mux.HandleFunc("GET /signup", s.handleSignupForm)
	mux.Handle("POST /users/create", limitBody(maxUploadBytes, protect(http.HandlerFunc(s.handleCreateUser))))
	mux.HandleFunc("POST /users/delete/{id}", s.handleDeleteUser)
	mux.HandleFunc("POST /users/favorite/{id}", s.handleFavoriteUser)

	// JSON API.
	mux.HandleFunc("GET /api/blog", s.handleListEntries)
	mux.Handle("POST /api/blog", protect(http.HandlerFunc(s.handleCreateEntry)))
	mux.Handle("PUT /api/blog/{id}", protect(http.HandlerFunc(s.handleUpdateEntry)))
	mux.Handle("DELETE /api/blog/{id}", protect(http.HandlerFunc(s.handleDeleteEntry)))
	mux.HandleFunc("GET /api/users", s.handleListUsersJSON)
	mux.Handle("POST /api/journal-signup", s.signupLimiter.Handler(protect(http.HandlerFunc(s.handleSignup))))
	mux.HandleFunc("GET /csrf-token", s.handleCSRFToken)
	mux.HandleFunc("GET /api/events/stream", s.handleEventStream)

	// Operations.
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))

	var h http.Handler = mux
	h = CORSMiddleware(s.corsOrigins, h)
	if s.metrics != nil {
		h = s.metrics.InstrumentHandler(h)
	}
	h = LoggingMiddleware(h)
	return RecoveryMiddleware(h)
}

// handleHealth handles GET /healthz.
func (s *JournalServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.Error("store health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCSRFToken handles GET /csrf-token.
func (s *JournalServer) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.csrf.Token(w, r)
	if err != nil {
		slog.Error("failed to issue csrf token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// marshalJSON encodes v on one line, leaving entry HTML unescaped.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps a store error to a JSON response. Anything other than
// not-found is logged and answered with a generic 500.
func writeStoreError(w http.ResponseWriter, err error, notFoundMsg, op string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	slog.Error("store operation failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// limitBody caps the request body at n bytes.
func limitBody(n int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, n)
		next.ServeHTTP(w, r)
	})
}
