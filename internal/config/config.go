// ABOUTME: Recovery configuration management with backend selection.
// ABOUTME: Loads file and RECOVERY_* env settings via viper and opens the storage backend.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/recovery/internal/charm"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/harperreed/recovery/internal/storage/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"

	envPrefix = "RECOVERY"
)

// Config stores recovery tool configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default), "postgres", or "charm".
	Backend string `json:"backend,omitempty" mapstructure:"backend"`

	// DataDir is the root directory for the SQLite database.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/recovery.
	DataDir string `json:"data_dir,omitempty" mapstructure:"data_dir"`

	PostgresDSN  string        `json:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`
	QueryTimeout time.Duration `json:"query_timeout,omitempty" mapstructure:"query_timeout"`

	// ConflictPolicy decides which score survives a second write for the same day.
	ConflictPolicy  string `json:"conflict_policy,omitempty" mapstructure:"conflict_policy"`
	TrendWindowDays int    `json:"trend_window_days,omitempty" mapstructure:"trend_window_days"`
	BaselineDays    int    `json:"baseline_days,omitempty" mapstructure:"baseline_days"`
	LogLevel        string `json:"log_level,omitempty" mapstructure:"log_level"`
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	return &Config{
		Backend:         BackendSQLite,
		QueryTimeout:    postgres.DefaultQueryTimeout,
		ConflictPolicy:  string(models.LastWriteWins),
		TrendWindowDays: 7,
		BaselineDays:    7,
		LogLevel:        "warn",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("postgres_dsn", d.PostgresDSN)
	v.SetDefault("query_timeout", d.QueryTimeout)
	v.SetDefault("conflict_policy", d.ConflictPolicy)
	v.SetDefault("trend_window_days", d.TrendWindowDays)
	v.SetDefault("baseline_days", d.BaselineDays)
	v.SetDefault("log_level", d.LogLevel)
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// Policy returns the configured conflict policy.
func (c *Config) Policy() models.ConflictPolicy {
	return models.ConflictPolicy(c.ConflictPolicy)
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(c.LogLevel))
}

// Validate rejects settings no backend or engine can run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm:
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if !models.IsValidConflictPolicy(c.ConflictPolicy) {
		return fmt.Errorf("unknown conflict_policy: %q", c.ConflictPolicy)
	}
	if c.TrendWindowDays < scoring.MinTrendScores {
		return fmt.Errorf("trend_window_days must be at least %d, got %d", scoring.MinTrendScores, c.TrendWindowDays)
	}
	if c.BaselineDays < 1 {
		return fmt.Errorf("baseline_days must be at least 1, got %d", c.BaselineDays)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Repository, error) {
	switch c.Backend {
	case BackendSQLite, "":
		return storage.Open(filepath.Join(c.GetDataDir(), "recovery.db"))
	case BackendPostgres:
		return postgres.Open(ctx, c.PostgresDSN, c.QueryTimeout)
	case BackendCharm:
		return charm.InitClient()
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "recovery", "config.json")
}

// Load reads config from disk and RECOVERY_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path := GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk. The timeout is written as a duration string.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	out := map[string]any{
		"backend":           c.Backend,
		"conflict_policy":   c.ConflictPolicy,
		"trend_window_days": c.TrendWindowDays,
		"baseline_days":     c.BaselineDays,
		"log_level":         c.LogLevel,
	}
	if c.DataDir != "" {
		out["data_dir"] = c.DataDir
	}
	if c.PostgresDSN != "" {
		out["postgres_dsn"] = c.PostgresDSN
	}
	if c.QueryTimeout > 0 {
		out["query_timeout"] = c.QueryTimeout.String()
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
