package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	AppName    string         `toml:"app_name"`
	AppID      string         `toml:"app_id"`
	DataDir    string         `toml:"data_dir"`
	SocketPath string         `toml:"socket_path"`
	Instance   InstanceConfig `toml:"instance"`
	Session    SessionConfig  `toml:"session"`
}

type InstanceConfig struct {
	RetryAttempts int `toml:"retry_attempts"`
	RetryDelayMs  int `toml:"retry_delay_ms"`
}

type SessionConfig struct {
	SettingsFile    string `toml:"settings_file"`
	MigrationMarker string `toml:"migration_marker"`
	MaxClosedGroups int    `toml:"max_closed_groups"`
}

var DefaultConfig = Config{
	AppName:    "phraims",
	AppID:      "com.nightvsknight.phraims",
	DataDir:    "~/.local/share/phraims",
	SocketPath: "/tmp/phraims_socket",
	Instance: InstanceConfig{
		RetryAttempts: 6,
		RetryDelayMs:  250,
	},
	Session: SessionConfig{
		SettingsFile:    "settings.toml",
		MigrationMarker: "migration_done_v1",
		MaxClosedGroups: 20,
	},
}

func LoadConfig(path string) (*Config, error) {
	expandedPath := expandPath(path)

	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		cfg := DefaultConfig
		cfg.DataDir = expandPath(cfg.DataDir)
		return &cfg, nil
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.SocketPath = expandPath(cfg.SocketPath)

	return &cfg, nil
}

func LoadAndValidateConfig(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

// SettingsPath returns the absolute path of the settings store file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, c.Session.SettingsFile)
}

// MigrationMarkerPath returns the absolute path of the filesystem
// migration marker, kept independent of the settings file on purpose.
func (c *Config) MigrationMarkerPath() string {
	return filepath.Join(c.DataDir, c.Session.MigrationMarker)
}

// ProfilesDir returns the directory that holds per-profile storage trees.
func (c *Config) ProfilesDir() string {
	return filepath.Join(c.DataDir, "profiles")
}

func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name must not be empty")
	}
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path must not be empty")
	}
	i := c.Instance
	if i.RetryAttempts < 1 || i.RetryAttempts > 60 {
		return fmt.Errorf("invalid retry_attempts: %d (must be 1-60)", i.RetryAttempts)
	}
	if i.RetryDelayMs < 0 || i.RetryDelayMs > 10000 {
		return fmt.Errorf("invalid retry_delay_ms: %d (must be 0-10000ms)", i.RetryDelayMs)
	}
	s := c.Session
	if s.SettingsFile == "" {
		return fmt.Errorf("settings_file must not be empty")
	}
	if s.MigrationMarker == "" {
		return fmt.Errorf("migration_marker must not be empty")
	}
	if s.MaxClosedGroups < 1 || s.MaxClosedGroups > 1000 {
		return fmt.Errorf("invalid max_closed_groups: %d (must be 1-1000)", s.MaxClosedGroups)
	}
	return nil
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		usr, err := user.Current()
		if err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}
