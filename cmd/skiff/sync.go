package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skiffdb/skiff/internal/daemon"
	"github.com/skiffdb/skiff/internal/store"
	"github.com/skiffdb/skiff/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Pull remote changes into the local store",
	Long: `Run one replication pass against the configured remote.

The pass is atomic: it either lands completely or leaves the local
store untouched. Without a configured remote this prints a notice and
does nothing.

After a successful pass the refreshed items are printed unless
--no-refresh is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		if !st.SyncEnabled() {
			fmt.Println(ui.Muted("No remote configured, nothing to sync"))
			fmt.Println(ui.Muted("Set SKIFF_SYNC_URL and SKIFF_AUTH_TOKEN to enable sync"))
			return
		}

		stats, err := st.Sync(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%ssync failed: %v\n", ui.Fail("Error: "), err)
			os.Exit(1)
		}

		fmt.Printf("%s%d frame(s) in %v\n",
			ui.OK("Synced "), stats.FramesSynced, stats.Duration.Round(time.Millisecond))

		noRefresh, _ := cmd.Flags().GetBool("no-refresh")
		if noRefresh {
			return
		}

		snap, err := st.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading items: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		fmt.Print(ui.RenderSnapshot(snap))
	},
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "sync",
	Short:   "Run the sync daemon in the foreground",
	Long: `Run the skiff daemon in foreground mode.

The daemon periodically syncs with the remote, watches the database
files for writes from other skiff processes, and keeps the item
snapshot current. Without a configured remote it still watches the
local files.

With --serve the WebSocket dashboard runs alongside the daemon so
connected clients see snapshots and sync results in real time.

Examples:
  skiff watch                    # Sync every 2s (config default)
  skiff watch --interval 10s     # Slower cadence
  skiff watch --serve            # Daemon plus dashboard`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		logger := serviceLogger(cfg, "[skiff] ")

		ctx := context.Background()
		st := openStore(ctx, cfg)
		defer st.Close()

		dcfg := daemon.DefaultConfig()
		dcfg.SyncInterval = cfg.SyncInterval
		dcfg.AutoSync = cfg.AutoSync
		dcfg.Logger = logger
		if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
			dcfg.SyncInterval = interval
		}

		var events daemon.Events = &consoleEvents{logger: logger}

		serve, _ := cmd.Flags().GetBool("serve")
		if serve {
			server, handler := startDashboard(cfg, logger)
			defer func() {
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
				}
			}()
			events = handler
		}

		d, err := daemon.New(st, dcfg, events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%sWatching %s\n", ui.Accent("» "), st.Path())
		if st.SyncEnabled() {
			fmt.Printf("   Sync interval: %v (auto-sync %s)\n",
				dcfg.SyncInterval, onOff(dcfg.AutoSync))
		} else {
			fmt.Println(ui.Muted("   No remote configured, running local-only"))
		}
		fmt.Println("\nPress Ctrl+C to stop")

		sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(sigCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("\nDaemon stopped")
	},
}

// consoleEvents logs snapshot changes for foreground watch sessions.
// Sync results are already logged by the scheduler, so SyncCompleted
// stays quiet.
type consoleEvents struct {
	logger *log.Logger
}

func (c *consoleEvents) SyncCompleted(stats store.SyncStats, err error) {}

func (c *consoleEvents) SnapshotChanged(snap store.Snapshot) {
	c.logger.Printf("Snapshot: %d pending, %d completed",
		len(snap.Pending), len(snap.Completed))
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func init() {
	syncCmd.Flags().Bool("no-refresh", false, "Skip printing items after the sync")
	watchCmd.Flags().DurationP("interval", "i", 0, "Sync interval (overrides config)")
	watchCmd.Flags().Bool("serve", false, "Also run the WebSocket dashboard")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}
