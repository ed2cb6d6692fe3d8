package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spailhq/spail/internal/config"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	homeDir string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spail",
	Short: "Local-first mailbox simulation",
	Long: `spail is a self-contained mailbox: users, folders, drafts and messages
all live in a single local document, with no external mail transport.

It provides a terminal UI, an HTTP API for other front ends, .eml
import/export, and scheduled trash retention, all over one SQLite file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		// Set up logging
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		if isatty.IsTerminal(os.Stderr.Fd()) {
			logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
		} else {
			logger = slog.New(slog.NewJSONHandler(os.Stderr, opts))
		}

		// Load config (--home is passed through so it influences
		// where config.toml is loaded from, like SPAIL_HOME).
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Ensure home directory exists on first use
		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.HomeDir, err)
		}

		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openStore opens the database and initializes the schema.
func openStore() (*store.Store, error) {
	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.Init(); err != nil {
		s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// newService builds the mailbox service over an open store.
func newService(s *store.Store) *mailbox.Service {
	docs := store.NewDocumentStore(s, cfg.Data.MailDomain, logger)
	return mailbox.NewService(docs, cfg.Data.MailDomain)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.spail/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides SPAIL_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
