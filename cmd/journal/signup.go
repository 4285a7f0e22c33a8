package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:     "signup <email>",
	Short:   "Send the newsletter welcome email",
	GroupID: "journal",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		msg, err := journalClient.Signup(context.Background(), args[0], name)
		if err != nil {
			return fmt.Errorf("signing up %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(map[string]any{"success": true, "message": msg})
		}
		fmt.Fprintln(stdout, msg)
		return nil
	},
}

func init() {
	signupCmd.Flags().String("name", "", "recipient name used in the greeting")
}
