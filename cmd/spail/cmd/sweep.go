package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepDays int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge old trashed messages now",
	Long: `Permanently delete trashed messages older than the retention age.
This is the same sweep the serve daemon runs on schedule, executed once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		days := sweepDays
		if days == 0 {
			days = cfg.Retention.MaxAgeDays
		}
		purged, err := newService(s).PurgeTrashOlderThan(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("sweep trash: %w", err)
		}
		fmt.Printf("Purged %d messages older than %d days.\n", purged, days)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepDays, "days", 0, "retention age in days (default: config max_age_days)")
}
