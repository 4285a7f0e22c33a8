// Package mail relays transactional email for the newsletter signup.
package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
)

// Message is a single outgoing email. From is filled in by the sender when
// empty.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a Message. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const welcomeSubject = "Welcome to the Developer Journal"

// WelcomeMessage builds the fixed welcome email sent after a newsletter
// signup. An empty name greets the reader as "there".
func WelcomeMessage(email, name string) Message {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return Message{
		To:      []string{email},
		Subject: welcomeSubject,
		HTML: fmt.Sprintf(`<h1>Hi %s!</h1>
<p>Thanks for subscribing to the Developer Journal newsletter.</p>
<p>You'll get new journal entries on building software, one post at a time.</p>`, html.EscapeString(name)),
		Text: fmt.Sprintf("Hi %s!\n\nThanks for subscribing to the Developer Journal newsletter.\n"+
			"You'll get new journal entries on building software, one post at a time.\n", name),
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail not sent (log driver)", "to", msg.To, "subject", msg.Subject)
	return nil
}
