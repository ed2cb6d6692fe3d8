// Package config handles loading and managing Spail configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the Spail configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Server    ServerConfig    `toml:"server"`
	Retention RetentionConfig `toml:"retention"`
	Search    SearchConfig    `toml:"search"`

	// Computed at load time, not from the config file.
	HomeDir string `toml:"-"`
}

// DataConfig holds storage configuration.
type DataConfig struct {
	DatabasePath string `toml:"database_path"` // Defaults to <home>/spail.db
	MailDomain   string `toml:"mail_domain"`   // Domain qualifying usernames into addresses
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"` // Default 8080
	APIKey          string   `toml:"api_key"`  // Optional; empty disables key auth
	CORSOrigins     []string `toml:"cors_origins"`
	CORSCredentials bool     `toml:"cors_credentials"`
	CORSMaxAge      int      `toml:"cors_max_age"` // Preflight cache seconds
}

// RetentionConfig controls scheduled trash purging.
type RetentionConfig struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"`     // Cron expression, e.g. "0 3 * * *"
	MaxAgeDays int    `toml:"max_age_days"` // Trash older than this is purged
}

// SearchConfig configures the web-search proxy.
type SearchConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// DefaultHome returns the default Spail home directory.
// Respects the SPAIL_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("SPAIL_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spail"
	}
	return filepath.Join(home, ".spail")
}

// Load reads the configuration. path points at an explicit config file;
// when empty, <home>/config.toml is used if it exists. home overrides the
// default home directory (the --home flag). Missing files yield defaults.
func Load(path, home string) (*Config, error) {
	homeDir := home
	if homeDir == "" {
		homeDir = DefaultHome()
	}

	cfg := defaultConfig(homeDir)

	if path == "" {
		candidate := filepath.Join(homeDir, "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.HomeDir = homeDir
	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			MailDomain: "spail.os",
		},
		Server: ServerConfig{
			APIPort: 8080,
		},
		Retention: RetentionConfig{
			Schedule:   "0 3 * * *",
			MaxAgeDays: 30,
		},
		Search: SearchConfig{
			TimeoutSeconds: 10,
		},
	}
}

// applyDefaults fills fields a config file may have zeroed out.
func applyDefaults(cfg *Config) {
	if cfg.Data.MailDomain == "" {
		cfg.Data.MailDomain = "spail.os"
	}
	if cfg.Server.APIPort == 0 {
		cfg.Server.APIPort = 8080
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "0 3 * * *"
	}
	if cfg.Retention.MaxAgeDays == 0 {
		cfg.Retention.MaxAgeDays = 30
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = 10
	}
}

// EnsureHomeDir creates the home directory if needed.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0755)
}

// DatabasePath returns the SQLite database path.
func (c *Config) DatabasePath() string {
	if c.Data.DatabasePath != "" {
		return c.Data.DatabasePath
	}
	return filepath.Join(c.HomeDir, "spail.db")
}

// ConfigFilePath returns the expected config file location.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}
