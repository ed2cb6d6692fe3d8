package cmd

import (
	"fmt"

	"github.com/spailhq/spail/internal/session"
	"github.com/spailhq/spail/internal/store"
	"github.com/spf13/cobra"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the mailbox to its built-in starting state",
	Long: `Reset the mailbox document to the built-in seed: the administrator
account and its welcome message. All users, mail and the active session
are discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !seedForce {
			return fmt.Errorf("this deletes all users and mail; re-run with --force to confirm")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		docs := store.NewDocumentStore(s, cfg.Data.MailDomain, logger)
		if err := docs.Save(store.SeedDocument(cfg.Data.MailDomain)); err != nil {
			return fmt.Errorf("write seed document: %w", err)
		}
		if err := session.NewProvider(s).Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}

		fmt.Println("Mailbox reset to seed state.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "confirm the reset")
}
