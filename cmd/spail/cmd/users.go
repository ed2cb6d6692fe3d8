package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		svc := newService(s)
		users, err := svc.Users()
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		for _, u := range users {
			unread, _ := svc.Unread(u.Username)
			fmt.Printf("%-20s %-30s unread: %d\n", u.Username, svc.Address(u.Username), unread)
		}
		return nil
	},
}

var removeUserCmd = &cobra.Command{
	Use:   "remove-user <username>",
	Short: "Delete a user and all mail referencing them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		username := args[0]
		if err := newService(s).DeleteUser(username); err != nil {
			return fmt.Errorf("remove user %s: %w", username, err)
		}
		fmt.Printf("Removed %s and their mail.\n", username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(removeUserCmd)
}
