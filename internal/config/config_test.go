package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load("", home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Data.MailDomain != "spail.os" {
		t.Errorf("MailDomain = %q", cfg.Data.MailDomain)
	}
	if cfg.Server.APIPort != 8080 {
		t.Errorf("APIPort = %d", cfg.Server.APIPort)
	}
	if cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("Schedule = %q", cfg.Retention.Schedule)
	}
	if cfg.Retention.MaxAgeDays != 30 {
		t.Errorf("MaxAgeDays = %d", cfg.Retention.MaxAgeDays)
	}
	if cfg.Search.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d", cfg.Search.TimeoutSeconds)
	}
	if cfg.DatabasePath() != filepath.Join(home, "spail.db") {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath())
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	content := `
[data]
mail_domain = "example.test"
database_path = "/tmp/other.db"

[server]
api_port = 9090
api_key = "secret"
cors_origins = ["http://localhost:3000"]

[retention]
enabled = true
max_age_days = 7

[search]
timeout_seconds = 3
`
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Implicit discovery via <home>/config.toml.
	cfg, err := Load("", home)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Data.MailDomain != "example.test" {
		t.Errorf("MailDomain = %q", cfg.Data.MailDomain)
	}
	if cfg.DatabasePath() != "/tmp/other.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath())
	}
	if cfg.Server.APIPort != 9090 || cfg.Server.APIKey != "secret" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if !cfg.Retention.Enabled || cfg.Retention.MaxAgeDays != 7 {
		t.Errorf("retention = %+v", cfg.Retention)
	}
	// Unset fields keep their defaults.
	if cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("Schedule = %q", cfg.Retention.Schedule)
	}
	if cfg.Search.TimeoutSeconds != 3 {
		t.Errorf("TimeoutSeconds = %d", cfg.Search.TimeoutSeconds)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, home); err == nil {
		t.Error("expected parse error")
	}
}

func TestDefaultHomeEnv(t *testing.T) {
	t.Setenv("SPAIL_HOME", "/custom/spail")
	if got := DefaultHome(); got != "/custom/spail" {
		t.Errorf("DefaultHome = %q", got)
	}
}

func TestExplicitHomeBeatsEnv(t *testing.T) {
	t.Setenv("SPAIL_HOME", "/custom/spail")
	cfg, err := Load("", "/explicit")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HomeDir != "/explicit" {
		t.Errorf("HomeDir = %q", cfg.HomeDir)
	}
}
