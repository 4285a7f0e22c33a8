package events

import (
	"context"
	"encoding/json"
)

// Message is one event as received from the bus.
type Message struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages whose topic matches pattern until ctx is
	// done, then closes the channel.
	Subscribe(ctx context.Context, pattern string) (<-chan Message, error)
	Close() error
}
