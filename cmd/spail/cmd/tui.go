package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spailhq/spail/internal/session"
	"github.com/spailhq/spail/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive mailbox UI",
	Long: `Open an interactive terminal UI over the local mailbox.

An existing session is resumed automatically; otherwise the UI starts at
the sign-in screen. The session is shared with the HTTP API, and the UI
follows login/logout performed there.

Navigation:
  ↑/k, ↓/j      Move up/down
  Tab, 1-6      Switch folder view
  Enter         Open message (drafts open in the composer)
  c             Compose
  r             Reply (from the reader)
  s             Star / unstar
  d             Trash (permanently deletes in trash, removes drafts)
  u             Restore from trash
  /             Filter by text
  P             Edit profile
  L             Log out
  q             Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		svc := newService(s)
		sessions := session.NewProvider(s)

		model := tui.New(svc, sessions, tui.Options{Version: Version})
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
