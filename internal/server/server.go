// Package server exposes the journal over HTTP (HTML views and a JSON API)
// and a gRPC health endpoint.
package server

import (
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/devjournal/internal/csrf"
	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/mail"
	"github.com/alfredjeanlab/devjournal/internal/metrics"
	"github.com/alfredjeanlab/devjournal/internal/store"
)

// maxUploadBytes bounds a POST /users/create body, portrait included.
const maxUploadBytes = 10 << 20

// Options carries the settings NewJournalServer does not derive itself.
type Options struct {
	UploadsDir  string
	CORSOrigins []string
	SignupRate  float64 // relays per second per client
	SignupBurst int
	Metrics     *metrics.Metrics // optional
}

// JournalServer serves users, journal entries, the newsletter signup and
// anti-forgery tokens.
type JournalServer struct {
	store     store.Store
	publisher events.Publisher
	csrf      *csrf.Protector
	mailer    mail.Sender
	metrics   *metrics.Metrics
	sseHub    *sseHub
	views     *template.Template

	uploadsDir    string
	corsOrigins   []string
	signupLimiter *rateLimiter

	now func() time.Time
}

// NewJournalServer returns a JournalServer. When opts.Metrics is set the
// store is instrumented with it.
func NewJournalServer(s store.Store, p events.Publisher, c *csrf.Protector, m mail.Sender, opts Options) *JournalServer {
	if opts.Metrics != nil {
		s = metrics.InstrumentStore(s, opts.Metrics)
	}
	if opts.UploadsDir == "" {
		opts.UploadsDir = "uploads"
	}
	if opts.SignupRate <= 0 {
		opts.SignupRate = 1
	}
	if opts.SignupBurst <= 0 {
		opts.SignupBurst = 5
	}
	return &JournalServer{
		store:         s,
		publisher:     p,
		csrf:          c,
		mailer:        m,
		metrics:       opts.Metrics,
		sseHub:        newSSEHub(),
		views:         parseViews(),
		uploadsDir:    opts.UploadsDir,
		corsOrigins:   opts.CORSOrigins,
		signupLimiter: newRateLimiter(opts.SignupRate, opts.SignupBurst),
		now:           time.Now,
	}
}

// publish emits an event to NATS and to SSE clients. It is best-effort;
// failures are logged but do not block the caller.
func (s *JournalServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
