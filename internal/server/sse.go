package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// replayWindow is how many recent mutations a reconnecting client can
	// catch up on via Last-Event-ID.
	replayWindow = 1000

	keepaliveEvery = 15 * time.Second

	// clientBacklog is the per-subscriber channel depth. A subscriber that
	// falls further behind misses events rather than stalling writers.
	clientBacklog = 64

	// retryMillis is the reconnect delay advertised to EventSource clients.
	retryMillis = 3000
)

type streamEvent struct {
	seq   uint64
	topic string
	data  []byte
}

// sseHub fans record mutations out to connected stream subscribers and keeps
// the last replayWindow of them for reconnects.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}

	histMu  sync.RWMutex
	seq     uint64
	history []streamEvent // ring, len <= replayWindow
	head    int           // oldest entry once history is full
}

type sseClient struct {
	filters []string
	ch      chan streamEvent
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
		history: make([]streamEvent, 0, replayWindow),
	}
}

func (h *sseHub) broadcast(topic string, payload []byte) {
	h.histMu.Lock()
	h.seq++
	evt := streamEvent{seq: h.seq, topic: topic, data: payload}
	if len(h.history) < replayWindow {
		h.history = append(h.history, evt)
	} else {
		h.history[h.head] = evt
		h.head = (h.head + 1) % replayWindow
	}
	h.histMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(filters []string) *sseClient {
	c := &sseClient{filters: filters, ch: make(chan streamEvent, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// since returns retained events newer than seq, oldest first.
func (h *sseHub) since(seq uint64) []streamEvent {
	h.histMu.RLock()
	defer h.histMu.RUnlock()

	var out []streamEvent
	n := len(h.history)
	for i := range n {
		evt := h.history[(h.head+i)%n]
		if evt.seq > seq {
			out = append(out, evt)
		}
	}
	return out
}

func (c *sseClient) wants(topic string) bool {
	if len(c.filters) == 0 {
		return true
	}
	for _, f := range c.filters {
		if matchTopicPattern(f, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches dot-separated topics NATS-style: "*" is exactly
// one segment, a trailing ">" is one or more segments.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		if p == ">" {
			return i < len(top)
		}
		if i >= len(top) || (p != "*" && p != top[i]) {
			return false
		}
	}
	return len(pat) == len(top)
}

// lastEventID reads the resume point from the Last-Event-ID header, falling
// back to ?lastEventId= for clients that cannot set headers.
func lastEventID(r *http.Request) (uint64, bool) {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("lastEventId")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil
}

// handleEventStream handles GET /api/events/stream.
func (s *JournalServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var filters []string
	for _, t := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filters = append(filters, t)
		}
	}

	client := s.sseHub.subscribe(filters)
	defer s.sseHub.unsubscribe(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	resumeFrom, resume := lastEventID(r)
	s.sseHub.streamEvents(r.Context(), w, flusher.Flush, client, resumeFrom, resume)
}

// streamEvents writes the retry hint, replays history after resumeFrom when
// resume is set, then copies live events until ctx is done. An event that
// was both replayed and queued on the client channel is written once.
func (h *sseHub) streamEvents(ctx context.Context, w io.Writer, flush func(), client *sseClient, resumeFrom uint64, resume bool) {
	fmt.Fprintf(w, "retry:%d\n\n", retryMillis)

	var lastSent uint64
	if resume {
		for _, evt := range h.since(resumeFrom) {
			if client.wants(evt.topic) {
				writeStreamEvent(w, evt)
			}
			lastSent = evt.seq
		}
	}
	flush()

	keepalive := time.NewTicker(keepaliveEvery)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			if evt.seq <= lastSent {
				continue
			}
			writeStreamEvent(w, evt)
			flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flush()
		}
	}
}

func writeStreamEvent(w io.Writer, evt streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.seq, evt.topic, evt.data)
}

func (s *JournalServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := marshalJSON(event)
	if err != nil {
		slog.Warn("failed to marshal stream event", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
