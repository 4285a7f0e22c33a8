package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/devjournal/internal/client"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Manage journal users",
	GroupID: "journal",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := journalClient.ListUsers(context.Background())
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		if jsonOutput {
			return printJSON(users)
		}
		printUserListTable(users)
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add <first-name> <last-name>",
	Short: "Create a user, optionally with a portrait",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.CreateUserRequest{FirstName: args[0], LastName: args[1]}
		if path, _ := cmd.Flags().GetString("avatar"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening avatar: %w", err)
			}
			defer f.Close()
			req.Avatar, req.AvatarName = f, filepath.Base(path)
		}

		if err := journalClient.CreateUser(context.Background(), req); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		fmt.Fprintf(stdout, "Created %s %s\n", args[0], args[1])
		return nil
	},
}

var usersFavCmd = &cobra.Command{
	Use:     "fav <id>",
	Aliases: []string{"favorite"},
	Short:   "Toggle a user's favorite flag",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := journalClient.ToggleFavorite(context.Background(), args[0]); err != nil {
			return fmt.Errorf("toggling favorite %s: %w", args[0], err)
		}
		fmt.Fprintf(stdout, "Toggled favorite on %s\n", args[0])
		return nil
	},
}

var usersRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete users",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := journalClient.DeleteUser(context.Background(), id); err != nil {
				return fmt.Errorf("deleting user %s: %w", id, err)
			}
			fmt.Fprintf(stdout, "Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	usersAddCmd.Flags().String("avatar", "", "portrait image to upload")
	usersCmd.AddCommand(usersListCmd, usersAddCmd, usersFavCmd, usersRmCmd)
}
