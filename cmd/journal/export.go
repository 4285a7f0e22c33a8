package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/config"
	journalsync "github.com/alfredjeanlab/devjournal/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a JSONL snapshot of the configured store",
	Long:    "Write a JSONL snapshot (the same format the sync scheduler uploads) of the store configured through JOURNAL_* settings.",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Reads the store directly, not through a server.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" && path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			defer f.Close()
			out = f
		}

		w := bufio.NewWriter(out)
		if err := journalsync.ExportJSONL(context.Background(), st, w); err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "-", "file to write (- for stdout)")
}
