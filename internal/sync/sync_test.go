package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/store/memory"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	fail   atomic.Bool
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	if d.fail.Load() {
		return errors.New("unreachable")
	}
	d.last.Store(append([]byte(nil), data...))
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	dest := &mockDestination{}
	sched := NewScheduler(memory.New(), []Destination{dest}, 20*time.Millisecond, quietLogger())
	sched.Start()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	// Unchanged data is written once.
	if writes := dest.writes.Load(); writes != 1 {
		t.Fatalf("expected 1 write, got %d", writes)
	}
	data, ok := dest.last.Load().([]byte)
	if !ok || len(nonEmptyLines(string(data))) != 6 {
		t.Fatalf("unexpected snapshot: %q", data)
	}
}

func TestSchedulerSyncOnce_SkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dest := &mockDestination{}
	sched := NewScheduler(st, []Destination{dest}, time.Hour, quietLogger())

	if !sched.SyncOnce(ctx) {
		t.Fatal("first sync should write")
	}
	if sched.SyncOnce(ctx) {
		t.Fatal("unchanged sync should be skipped")
	}

	if _, err := st.AppendEntry(ctx, &model.Entry{Title: "new"}); err != nil {
		t.Fatal(err)
	}
	if !sched.SyncOnce(ctx) {
		t.Fatal("sync after a change should write")
	}
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("expected 2 writes, got %d", got)
	}
}

func TestSchedulerSyncOnce_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	dest := &mockDestination{}
	dest.fail.Store(true)
	sched := NewScheduler(memory.New(), []Destination{dest}, time.Hour, quietLogger())

	sched.SyncOnce(ctx)
	dest.fail.Store(false)
	if !sched.SyncOnce(ctx) {
		t.Fatal("a failed snapshot must be written again")
	}
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("expected 2 writes, got %d", got)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(memory.New(), nil, time.Minute, nil)
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	dest1 := &mockDestination{}
	dest2 := &mockDestination{}
	dest1.fail.Store(true)

	sched := NewScheduler(memory.New(), []Destination{dest1, dest2}, time.Hour, quietLogger())
	sched.SyncOnce(context.Background())

	if dest1.writes.Load() != 1 || dest2.writes.Load() != 1 {
		t.Fatalf("every destination should be tried: %d, %d", dest1.writes.Load(), dest2.writes.Load())
	}
}

func TestDestName(t *testing.T) {
	if got := destName(3, &mockDestination{}); got != "#3" {
		t.Fatalf("got %q", got)
	}
	if got := destName(0, NewGitDestination("/repo", "j.jsonl", "main")); got != "git:/repo/j.jsonl" {
		t.Fatalf("got %q", got)
	}
}
