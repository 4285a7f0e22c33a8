package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alfredjeanlab/devjournal/internal/config"
	"github.com/alfredjeanlab/devjournal/internal/csrf"
	"github.com/alfredjeanlab/devjournal/internal/events"
	"github.com/alfredjeanlab/devjournal/internal/mail"
	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/server"
	"github.com/alfredjeanlab/devjournal/internal/store/jsonfile"
	"github.com/alfredjeanlab/devjournal/internal/store/memory"
	"github.com/alfredjeanlab/devjournal/internal/ui"
)

func init() { ui.ForceNoColor() }

// runCLI executes the root command against a fresh in-process server and
// returns what the command printed.
func runCLI(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	saved := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = saved })

	resetFlags(rootCmd)
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(append([]string{"--url", url}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag defaults between Execute calls on the shared
// command tree.
func resetFlags(cmd *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func newCLIServer(t *testing.T) string {
	t.Helper()
	protector, err := csrf.New("cli-test")
	if err != nil {
		t.Fatal(err)
	}
	js := server.NewJournalServer(memory.New(), &events.NoopPublisher{}, protector, &mail.LogSender{},
		server.Options{UploadsDir: t.TempDir()})
	srv := httptest.NewServer(js.NewHTTPHandler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestEntriesCommands(t *testing.T) {
	url := newCLIServer(t)

	out, err := runCLI(t, url, "entries", "list")
	if err != nil {
		t.Fatalf("entries list: %v", err)
	}
	for _, want := range []string{"abc12", "Understanding React Hooks", "3 entries"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	out, err = runCLI(t, url, "--json", "entries", "add", "Notes on Go", "--author", "Ana", "--html", "<p>hi</p>")
	if err != nil {
		t.Fatalf("entries add: %v", err)
	}
	var created model.Entry
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(created.ID) != 5 || created.Author != "Ana" {
		t.Fatalf("unexpected entry: %+v", created)
	}

	out, err = runCLI(t, url, "entries", "edit", created.ID, "--title", "Notes on Go, part 1")
	if err != nil || !strings.Contains(out, "Notes on Go, part 1") || !strings.Contains(out, "Ana") {
		t.Fatalf("entries edit = %q, %v", out, err)
	}

	if _, err := runCLI(t, url, "entries", "edit", created.ID); err == nil {
		t.Fatal("edit without flags should fail")
	}

	out, err = runCLI(t, url, "entries", "rm", created.ID)
	if err != nil || !strings.Contains(out, "Deleted "+created.ID) {
		t.Fatalf("entries rm = %q, %v", out, err)
	}

	if _, err := runCLI(t, url, "entries", "rm", created.ID); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 removing twice, got %v", err)
	}
}

func TestEntriesAdd_HTMLFile(t *testing.T) {
	url := newCLIServer(t)
	path := filepath.Join(t.TempDir(), "body.html")
	if err := os.WriteFile(path, []byte("<h1>From file</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, url, "--json", "entries", "add", "T", "--html-file", path)
	if err != nil {
		t.Fatalf("entries add: %v", err)
	}
	if !strings.Contains(out, "From file") {
		t.Fatalf("expected html from file, got %s", out)
	}
}

func TestUsersCommands(t *testing.T) {
	url := newCLIServer(t)

	avatar := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(avatar, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, url, "users", "add", "Grace", "Hopper", "--avatar", avatar); err != nil {
		t.Fatalf("users add: %v", err)
	}

	out, err := runCLI(t, url, "users", "list")
	if err != nil || !strings.Contains(out, "Grace Hopper") || !strings.Contains(out, "3 users") {
		t.Fatalf("users list = %q, %v", out, err)
	}

	if _, err := runCLI(t, url, "users", "fav", "JEbxp"); err != nil {
		t.Fatalf("users fav: %v", err)
	}
	out, _ = runCLI(t, url, "--json", "users", "list")
	var users []*model.User
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatal(err)
	}
	if !users[0].IsFavorite {
		t.Fatal("expected JEbxp to be favorite")
	}

	if _, err := runCLI(t, url, "users", "rm", "JEbxp"); err != nil {
		t.Fatalf("users rm: %v", err)
	}
	if _, err := runCLI(t, url, "users", "rm", "JEbxp"); err == nil {
		t.Fatal("expected error removing a missing user")
	}
}

func TestSignupAndHealthCommands(t *testing.T) {
	url := newCLIServer(t)

	out, err := runCLI(t, url, "signup", "ada@example.com", "--name", "Ada")
	if err != nil || !strings.Contains(out, "Welcome email sent") {
		t.Fatalf("signup = %q, %v", out, err)
	}

	out, err = runCLI(t, url, "health")
	if err != nil || !strings.Contains(out, "Health: ok") {
		t.Fatalf("health = %q, %v", out, err)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNAL_STORE", config.StoreFile)
	t.Setenv("JOURNAL_DATA_DIR", dir)
	t.Setenv("JOURNAL_CONFIG", "")
	t.Chdir(t.TempDir())

	st, err := jsonfile.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	out := filepath.Join(t.TempDir(), "snap.jsonl")
	if _, err := runCLI(t, "http://unused", "export", "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 || !strings.Contains(lines[0], `"type":"header"`) {
		t.Fatalf("unexpected snapshot:\n%s", data)
	}
}

func TestOpenStore(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{Store: config.StoreMemory}, false},
		{"file", config.Config{Store: config.StoreFile, DataDir: t.TempDir()}, false},
		{"unknown", config.Config{Store: "mongo"}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st, err := openStore(&tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			defer st.Close()
			if err := st.Ping(t.Context()); err != nil {
				t.Fatalf("ping: %v", err)
			}
		})
	}
}

func TestNewScheduler_Disabled(t *testing.T) {
	st := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, cfg := range []*config.Config{
		{SyncInterval: 0, SyncGitRepo: "/tmp/repo"},
		{SyncInterval: 1e9},
	} {
		if s := newScheduler(t.Context(), cfg, st, logger); s != nil {
			t.Fatalf("expected no scheduler for %+v", cfg)
		}
	}
}

func TestColorizeHelpOutput_NoColor(t *testing.T) {
	in := "Usage:\n  journal <command>\n\nJournal:\n  entries     List and edit journal entries\n"
	got := colorizeHelpOutput(in)
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("expected no escape codes without color, got %q", got)
	}
	for _, want := range []string{"Journal", "entries", "List and edit journal entries"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestTruncateAndShortDate(t *testing.T) {
	if got := truncate("héllo wörld", 8); got != "héllo..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 8); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := shortDate("2024-01-15T14:30:00.000Z"); got != "2024-01-15" {
		t.Fatalf("shortDate = %q", got)
	}
}
