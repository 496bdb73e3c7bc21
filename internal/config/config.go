// Package config loads skiff's configuration from the environment and an
// optional YAML config file.
//
// Precedence, highest first: SKIFF_* environment variables, the Turso CLI
// fallbacks (TURSO_DATABASE_URL, TURSO_AUTH_TOKEN), the config file at
// $XDG_CONFIG_HOME/skiff/config.yaml, then built-in defaults. Command-line
// flags override loaded values where commands offer them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SKIFF"

// Config is the resolved runtime configuration.
type Config struct {
	// DBPath is the local database file.
	DBPath string

	// SyncURL and AuthToken form the remote connection descriptor. Both
	// must be present for replica mode; absence of either leaves the
	// store in local-only mode and never crashes anything.
	SyncURL   string
	AuthToken string

	// SyncInterval is the periodic sync tick interval.
	SyncInterval time.Duration

	// AutoSync is the initial state of the periodic scheduler in watch
	// mode.
	AutoSync bool

	// ReadYourWrites makes replica writes visible to local reads before
	// the next sync pass.
	ReadYourWrites bool

	// ServeAddr is the dashboard listen address.
	ServeAddr string

	// LogFile, when set, tees daemon logs into a size-rotated file.
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load resolves the configuration from defaults, config file, and
// environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.path", defaultDBPath())
	v.SetDefault("sync.interval", 2*time.Second)
	v.SetDefault("sync.auto", true)
	v.SetDefault("sync.read_your_writes", true)
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Accept the Turso CLI's environment variables as fallbacks so a
	// configured turso setup works without re-exporting anything.
	_ = v.BindEnv("sync.url", "SKIFF_SYNC_URL", "TURSO_DATABASE_URL")
	_ = v.BindEnv("sync.token", "SKIFF_AUTH_TOKEN", "TURSO_AUTH_TOKEN")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		v.AddConfigPath(filepath.Join(x, "skiff"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "skiff"))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DBPath:         v.GetString("db.path"),
		SyncURL:        v.GetString("sync.url"),
		AuthToken:      v.GetString("sync.token"),
		SyncInterval:   v.GetDuration("sync.interval"),
		AutoSync:       v.GetBool("sync.auto"),
		ReadYourWrites: v.GetBool("sync.read_your_writes"),
		ServeAddr:      v.GetString("serve.addr"),
		LogFile:        v.GetString("log.file"),
		LogMaxSizeMB:   v.GetInt("log.max_size_mb"),
		LogMaxBackups:  v.GetInt("log.max_backups"),
		LogMaxAgeDays:  v.GetInt("log.max_age_days"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime behavior.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.SyncInterval)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must not be negative")
	}
	return nil
}

// RemoteConfigured reports whether both halves of the remote connection
// descriptor are present.
func (c *Config) RemoteConfigured() bool {
	return c.SyncURL != "" && c.AuthToken != ""
}

// defaultDBPath places the database under the user state directory,
// falling back to the working directory when no home is resolvable.
func defaultDBPath() string {
	if x := os.Getenv("XDG_STATE_HOME"); x != "" {
		return filepath.Join(x, "skiff", "skiff.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "skiff.db"
	}
	return filepath.Join(home, ".local", "state", "skiff", "skiff.db")
}
