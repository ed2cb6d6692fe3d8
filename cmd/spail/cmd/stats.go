package cmd

import (
	"fmt"

	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mailbox statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := newService(s).GetStats()
		if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}

		fmt.Printf("Users:    %d\n", st.Users)
		fmt.Printf("Messages: %d\n", st.Emails)
		for _, f := range mailbox.Folders {
			if n := st.PerFolder[f]; n > 0 {
				fmt.Printf("  %-7s %d\n", string(f)+":", n)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
