// ABOUTME: config.go provides configuration file management for the chantier CLI.
// ABOUTME: Supports loading, saving, and auto-initialization with environment variable overrides.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// secret is the build-time application secret the storage key is derived
// from. Override at build time:
//
//	go build -ldflags "-X .../internal/cli.secret=..."
var secret = "hub-chantier-embedded-secret-v1"

// Config represents the chantier CLI configuration.
type Config struct {
	Server string `json:"server"`           // backend base URL
	Token  string `json:"token,omitempty"`  // bearer token for replay
	Scope  string `json:"scope"`            // session scope, wiped on logout
	DB     string `json:"db"`               // SQLiteKV path
	Redis  string `json:"redis,omitempty"`  // RedisKV address, overrides DB when set
}

// ConfigPath is a function that returns the path to the chantier config file.
// It can be overridden in tests.
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".chantier", "config.json")
	}
	return filepath.Join(home, ".chantier", "config.json")
}

// ConfigDir returns the directory containing the config file.
func ConfigDir() string {
	return filepath.Dir(ConfigPath())
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0o700)
}

// LoadConfig loads config from file and applies environment variable
// overrides. A corrupted file is backed up next to itself and reported;
// a missing file yields defaults.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	configPath := ConfigPath()
	// #nosec G304 -- configPath is derived from user's home directory, not user input
	data, err := os.ReadFile(configPath)
	if err == nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			backup := fmt.Sprintf("%s.corrupt.%d", configPath, time.Now().Unix())
			if renameErr := os.Rename(configPath, backup); renameErr == nil {
				fmt.Fprintf(os.Stderr, "Warning: corrupted config backed up to %s\n", backup)
			}
			return nil, fmt.Errorf("config file corrupted: %w\nRun 'chantier init' to create a new config", jsonErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.DB == "" {
		cfg.DB = filepath.Join(ConfigDir(), "offline.db")
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{}
}

// applyEnvOverrides lets CHANTIER_* environment variables win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHANTIER_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("CHANTIER_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("CHANTIER_SCOPE"); v != "" {
		cfg.Scope = v
	}
	if v := os.Getenv("CHANTIER_DB"); v != "" {
		cfg.DB = v
	}
	if v := os.Getenv("CHANTIER_REDIS"); v != "" {
		cfg.Redis = v
	}
	if v := os.Getenv("CHANTIER_SECRET"); v != "" {
		secret = v
	}
}

// SaveConfig writes the config with restrictive permissions.
func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
