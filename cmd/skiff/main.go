// Command skiff manages a local-first item store that mirrors a remote
// libSQL database through an embedded replica.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/skiffdb/skiff/internal/config"
	"github.com/skiffdb/skiff/internal/store"
	"github.com/skiffdb/skiff/internal/ui"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "skiff",
	Short: "Local-first item store with remote sync",
	Long: `Skiff keeps your items in a local SQLite database and mirrors a remote
libSQL database when one is configured.

All reads and writes hit the local file, so every command works offline.
When SKIFF_SYNC_URL and SKIFF_AUTH_TOKEN (or their TURSO_* equivalents)
are set, the store becomes an embedded replica and 'skiff sync' or the
watch daemon pull remote changes down.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "items", Title: "Item Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
		&cobra.Group{ID: "maint", Title: "Maintenance Commands:"},
	)
	rootCmd.PersistentFlags().String("db", "", "Path to the database file (overrides config)")
}

// loadConfig resolves configuration from env, config file, and the
// --db override.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

// openStore opens the configured store and brings its schema current.
// Migration failures are fatal and exit non-zero.
func openStore(ctx context.Context, cfg *config.Config) *store.Store {
	st, err := store.Open(store.Options{
		Path:           cfg.DBPath,
		RemoteURL:      cfg.SyncURL,
		AuthToken:      cfg.AuthToken,
		ReadYourWrites: cfg.ReadYourWrites,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		fmt.Fprintf(os.Stderr, "Error migrating store: %v\n", err)
		os.Exit(1)
	}

	return st
}

// serviceLogger builds the logger long-running commands use. With
// log.file configured it writes to a rotating file, otherwise stderr.
func serviceLogger(cfg *config.Config, prefix string) *log.Logger {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags)
	}
	return log.New(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	}, prefix, log.LstdFlags)
}

// parseID converts a positional id argument, exiting on garbage input.
func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", arg)
		os.Exit(1)
	}
	return id
}

func main() {
	ui.Init()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
