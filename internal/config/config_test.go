package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.AppName != "phraims" {
		t.Errorf("Expected default app_name, got %q", cfg.AppName)
	}
	if cfg.Instance.RetryAttempts != 6 {
		t.Errorf("Expected 6 retry attempts, got %d", cfg.Instance.RetryAttempts)
	}
	if cfg.Session.MigrationMarker != "migration_done_v1" {
		t.Errorf("Expected default migration marker, got %q", cfg.Session.MigrationMarker)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "socket_path = \"/tmp/test_phraims.sock\"\n\n[instance]\nretry_attempts = 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SocketPath != "/tmp/test_phraims.sock" {
		t.Errorf("Expected overridden socket path, got %q", cfg.SocketPath)
	}
	if cfg.Instance.RetryAttempts != 3 {
		t.Errorf("Expected 3 retry attempts, got %d", cfg.Instance.RetryAttempts)
	}
	if cfg.Instance.RetryDelayMs != 250 {
		t.Errorf("Expected default retry delay to survive partial file, got %d", cfg.Instance.RetryDelayMs)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}

	bad := DefaultConfig
	bad.Instance.RetryAttempts = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for zero retry attempts")
	}

	bad = DefaultConfig
	bad.Session.MigrationMarker = ""
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for empty migration marker")
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := DefaultConfig
	cfg.DataDir = "/data/phraims"
	if got := cfg.SettingsPath(); got != "/data/phraims/settings.toml" {
		t.Errorf("Unexpected settings path %q", got)
	}
	if got := cfg.MigrationMarkerPath(); got != "/data/phraims/migration_done_v1" {
		t.Errorf("Unexpected marker path %q", got)
	}
	if got := cfg.ProfilesDir(); got != "/data/phraims/profiles" {
		t.Errorf("Unexpected profiles dir %q", got)
	}
}
