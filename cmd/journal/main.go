package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/client"
	"github.com/alfredjeanlab/devjournal/internal/ui"
)

var (
	serverURL  string
	jsonOutput bool
	noColor    bool

	journalClient client.JournalClient
)

func defaultServerURL() string {
	if s := os.Getenv("JOURNAL_URL"); s != "" {
		return s
	}
	return "http://localhost:3000"
}

var rootCmd = &cobra.Command{
	Use:           "journal <command>",
	Short:         "Developer journal server and client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		}
		journalClient = client.NewHTTPClient(serverURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if journalClient != nil {
			journalClient.Close()
		}
	},
}

func init() {
	ui.Init()

	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "journal server URL (env JOURNAL_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "journal", Title: "Journal:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
