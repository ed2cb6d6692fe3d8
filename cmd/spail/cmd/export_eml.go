package cmd

import (
	"fmt"

	"github.com/spailhq/spail/internal/export"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/store"
	"github.com/spf13/cobra"
)

var exportFolder string

var exportEMLCmd = &cobra.Command{
	Use:   "export-eml <directory>",
	Short: "Export mail as .eml files",
	Long: `Export mail as RFC 5322 .eml files, one file per message, named by
message id. By default every message is exported; --folder restricts the
export to one folder.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		doc, err := store.NewDocumentStore(s, cfg.Data.MailDomain, logger).Load()
		if err != nil {
			return fmt.Errorf("load mailbox: %w", err)
		}

		emails := doc.Emails
		if exportFolder != "" {
			f, err := mailbox.ParseFolder(exportFolder)
			if err != nil {
				return err
			}
			filtered := make([]mailbox.Email, 0, len(emails))
			for _, e := range emails {
				if e.Folder == f {
					filtered = append(filtered, e)
				}
			}
			emails = filtered
		}

		n, err := export.ExportEmails(args[0], emails, cfg.Data.MailDomain)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("Exported %d messages to %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportEMLCmd)
	exportEMLCmd.Flags().StringVar(&exportFolder, "folder", "", "export only this folder (inbox, sent, drafts, trash, spam)")
}
