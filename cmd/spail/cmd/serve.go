package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spailhq/spail/internal/api"
	"github.com/spailhq/spail/internal/scheduler"
	"github.com/spailhq/spail/internal/search"
	"github.com/spailhq/spail/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server in the foreground.

The server exposes the mailbox over REST on the configured port
(default: 8080), plus the web search proxy, and shares the login
session with the TUI.

When retention is enabled in config.toml, trashed messages older than
the configured age are purged on a cron schedule:

  [retention]
  enabled = true
  schedule = "0 3 * * *"   # 3am daily (cron format)
  max_age_days = 30

Use Ctrl+C to stop the server gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	svc := newService(s)
	sessions := session.NewProvider(s)
	searcher := search.NewClient(search.Options{
		UserAgent: cfg.Search.UserAgent,
		Timeout:   time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		Logger:    logger,
	})

	var sweeper *scheduler.Sweeper
	if cfg.Retention.Enabled {
		maxAge := time.Duration(cfg.Retention.MaxAgeDays) * 24 * time.Hour
		sweeper = scheduler.New(func(ctx context.Context) (int, error) {
			return svc.PurgeTrashOlderThan(maxAge)
		}).WithLogger(logger)
		if err := sweeper.SetSchedule(cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("retention schedule %q: %w", cfg.Retention.Schedule, err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	server := api.NewServer(cfg, svc, sessions, searcher, sweeper, logger)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.Server.APIPort))
	fmt.Printf("spail server started\n")
	fmt.Printf("  API:            http://%s\n", addr)
	fmt.Printf("  Data directory: %s\n", cfg.HomeDir)
	if sweeper != nil {
		fmt.Printf("  Trash sweep:    %s (keep %d days)\n", cfg.Retention.Schedule, cfg.Retention.MaxAgeDays)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
