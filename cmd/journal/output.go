package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/alfredjeanlab/devjournal/internal/model"
	"github.com/alfredjeanlab/devjournal/internal/ui"
)

var stdout io.Writer = os.Stdout

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, ui.RenderError("Error:"), err)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func printEntryListTable(entries []*model.Entry) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAUTHOR\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ui.RenderAccent(e.ID),
			shortDate(e.Date),
			e.Author,
			truncate(e.Title, 50),
		)
	}
	w.Flush()
	fmt.Fprintln(stdout, ui.RenderMuted(fmt.Sprintf("\n%d entries", len(entries))))
}

// shortDate keeps the day of an ISO timestamp.
func shortDate(d string) string {
	if i := strings.IndexByte(d, 'T'); i > 0 {
		return d[:i]
	}
	return d
}

func printEntry(e *model.Entry) {
	fmt.Fprintf(stdout, "ID:      %s\n", ui.RenderAccent(e.ID))
	fmt.Fprintf(stdout, "Title:   %s\n", e.Title)
	fmt.Fprintf(stdout, "Author:  %s\n", e.Author)
	fmt.Fprintf(stdout, "Date:    %s\n", e.Date)
	if e.HTML != "" {
		fmt.Fprintf(stdout, "HTML:    %s\n", truncate(e.HTML, 72))
	}
}

func printUserListTable(users []*model.User) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tPORTRAIT")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ui.Star(u.IsFavorite),
			ui.RenderAccent(u.ID),
			u.FullName(),
			ui.RenderMuted(u.Portrait()),
		)
	}
	w.Flush()
	fmt.Fprintln(stdout, ui.RenderMuted(fmt.Sprintf("\n%d users", len(users))))
}
