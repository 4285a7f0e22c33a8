package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print journal changes as they happen",
	Long:    "Print journal changes as they happen. Uses NATS events when --nats-url (or JOURNAL_NATS_URL) is set and polls the server otherwise.",
	GroupID: "journal",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL != "" {
			return watchNATS(ctx, natsURL)
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		return watchPoll(ctx, interval)
	},
}

func printChange(c events.Message) {
	if jsonOutput {
		data, _ := json.Marshal(c)
		fmt.Fprintln(stdout, string(data))
		return
	}
	fmt.Fprintf(stdout, "%s %s %s\n",
		ui.RenderMuted(time.Now().Format(time.TimeOnly)),
		ui.RenderAccent(c.Topic),
		c.Data,
	)
}

// watchNATS prints every journal event published on NATS.
func watchNATS(ctx context.Context, url string) error {
	sub, err := events.NewNATSSubscriber(url,
		nats.Name("journal-watch"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			slog.Info("nats reconnected")
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	msgs, err := sub.Subscribe(ctx, events.TopicAll)
	if err != nil {
		return err
	}
	for msg := range msgs {
		printChange(msg)
	}
	return nil
}

// watchPoll lists entries and users every interval and prints the
// differences as synthetic events.
func watchPoll(ctx context.Context, interval time.Duration) error {
	var prev *snapshot
	for {
		cur, err := takeSnapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if prev != nil {
			for _, c := range diffSnapshots(prev, cur) {
				printChange(c)
			}
		}
		prev = cur

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type snapshot struct {
	entries    map[string]model.Entry
	users      map[string]model.User
	entryOrder []string
	userOrder  []string
}

func takeSnapshot(ctx context.Context) (*snapshot, error) {
	entries, err := journalClient.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	users, err := journalClient.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return newSnapshot(entries, users), nil
}

func newSnapshot(entries []*model.Entry, users []*model.User) *snapshot {
	s := &snapshot{
		entries: make(map[string]model.Entry, len(entries)),
		users:   make(map[string]model.User, len(users)),
	}
	for _, e := range entries {
		s.entries[e.ID] = *e
		s.entryOrder = append(s.entryOrder, e.ID)
	}
	for _, u := range users {
		s.users[u.ID] = *u
		s.userOrder = append(s.userOrder, u.ID)
	}
	return s
}

func diffSnapshots(prev, cur *snapshot) []events.Message {
	var out []events.Message
	emit := func(topic string, v any) {
		data, _ := json.Marshal(v)
		out = append(out, events.Message{Topic: topic, Data: data})
	}

	for _, id := range cur.entryOrder {
		e := cur.entries[id]
		old, existed := prev.entries[id]
		switch {
		case !existed:
			emit(events.TopicEntryCreated, events.EntryCreated{Entry: &e})
		case old != e:
			emit(events.TopicEntryUpdated, events.EntryUpdated{Entry: &e})
		}
	}
	for _, id := range prev.entryOrder {
		if _, ok := cur.entries[id]; !ok {
			emit(events.TopicEntryDeleted, events.EntryDeleted{EntryID: id})
		}
	}
	for _, id := range cur.userOrder {
		u := cur.users[id]
		old, existed := prev.users[id]
		switch {
		case !existed:
			emit(events.TopicUserCreated, events.UserCreated{User: &u})
		case old.IsFavorite != u.IsFavorite:
			emit(events.TopicUserFavorited, events.UserFavorited{UserID: id, IsFavorite: u.IsFavorite})
		}
	}
	for _, id := range prev.userOrder {
		if _, ok := cur.users[id]; !ok {
			emit(events.TopicUserDeleted, events.UserDeleted{UserID: id})
		}
	}
	return out
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("JOURNAL_NATS_URL"), "NATS server to read events from")
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not used")
}
