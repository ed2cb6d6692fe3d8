package cmd

import (
	"fmt"

	"github.com/spailhq/spail/internal/importer"
	"github.com/spf13/cobra"
)

var importEMLCmd = &cobra.Command{
	Use:   "import-eml <username> <file.eml>...",
	Short: "Import .eml files into a user's inbox",
	Long: `Parse .eml files and deliver them to the given user's inbox. The
sender address and original date are taken from the message headers.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		svc := newService(s)
		username := args[0]
		if _, err := svc.User(username); err != nil {
			return fmt.Errorf("user %s: %w", username, err)
		}
		toAddr := svc.Address(username)

		imported := 0
		for _, path := range args[1:] {
			p, err := importer.ParseFile(path)
			if err != nil {
				logger.Warn("skipping file", "path", path, "error", err)
				continue
			}
			if _, err := svc.Deliver(p.From, toAddr, p.Subject, p.Body, p.Date); err != nil {
				return fmt.Errorf("deliver %s: %w", path, err)
			}
			imported++
		}

		fmt.Printf("Imported %d of %d messages into %s\n", imported, len(args)-1, toAddr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importEMLCmd)
}
