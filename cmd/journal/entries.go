package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/client"
	"github.com/alfredjeanlab/devjournal/internal/model"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"entry", "blog"},
	Short:   "List and edit journal entries",
	GroupID: "journal",
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := journalClient.ListEntries(context.Background())
		if err != nil {
			return fmt.Errorf("listing entries: %w", err)
		}
		if jsonOutput {
			return printJSON(entries)
		}
		printEntryListTable(entries)
		return nil
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Append a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.CreateEntryRequest{Title: args[0]}
		req.Author, _ = cmd.Flags().GetString("author")
		req.Date, _ = cmd.Flags().GetString("date")

		html, err := readHTMLFlag(cmd)
		if err != nil {
			return err
		}
		req.HTML = html

		entry, err := journalClient.CreateEntry(context.Background(), req)
		if err != nil {
			return fmt.Errorf("creating entry: %w", err)
		}
		if jsonOutput {
			return printJSON(entry)
		}
		printEntry(entry)
		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of a journal entry",
	Long:  "Update fields of a journal entry. Only the flags given are changed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch model.EntryPatch
		for name, dst := range map[string]**string{
			"title":  &patch.Title,
			"author": &patch.Author,
			"date":   &patch.Date,
		} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetString(name)
				*dst = &v
			}
		}
		if cmd.Flags().Changed("html") || cmd.Flags().Changed("html-file") {
			html, err := readHTMLFlag(cmd)
			if err != nil {
				return err
			}
			patch.HTML = &html
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to update: pass at least one of --title, --author, --date, --html, --html-file")
		}

		entry, err := journalClient.UpdateEntry(context.Background(), args[0], &patch)
		if err != nil {
			return fmt.Errorf("updating entry %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(entry)
		}
		printEntry(entry)
		return nil
	},
}

var entriesRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete journal entries",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			entry, err := journalClient.DeleteEntry(context.Background(), id)
			if err != nil {
				return fmt.Errorf("deleting entry %s: %w", id, err)
			}
			if jsonOutput {
				if err := printJSON(entry); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(stdout, "Deleted %s (%s)\n", entry.ID, entry.Title)
		}
		return nil
	},
}

// readHTMLFlag returns --html, or the contents of --html-file ("-" is stdin).
func readHTMLFlag(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("html-file")
	if path == "" {
		html, _ := cmd.Flags().GetString("html")
		return html, nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func init() {
	for _, c := range []*cobra.Command{entriesAddCmd, entriesEditCmd} {
		c.Flags().String("author", "", "entry author")
		c.Flags().String("date", "", "entry date (ISO 8601; the server fills it in when empty)")
		c.Flags().String("html", "", "entry body as HTML")
		c.Flags().String("html-file", "", "read the HTML body from a file (- for stdin)")
		c.MarkFlagsMutuallyExclusive("html", "html-file")
	}
	entriesEditCmd.Flags().String("title", "", "entry title")

	entriesCmd.AddCommand(entriesListCmd, entriesAddCmd, entriesEditCmd, entriesRmCmd)
}
