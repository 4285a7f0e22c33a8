package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/mail"
)

type signupInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleSignup handles POST /api/journal-signup. It relays one welcome email
// and changes no local state.
func (s *JournalServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	email, err := in.recipient()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.mailer.Send(r.Context(), mail.WelcomeMessage(email, in.Name))
	if s.metrics != nil {
		s.metrics.ObserveMailRelay(err)
	}
	if err != nil {
		slog.Error("failed to relay welcome email", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to send welcome email")
		return
	}

	s.publish(r.Context(), events.TopicSignupSent, events.SignupSent{Domain: emailDomain(email)})

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Welcome email sent",
	})
}

func (in signupInput) recipient() (string, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return "", inputError("Email is required")
	}
	return email, nil
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}
