package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skiffdb/skiff/internal/config"
	"github.com/skiffdb/skiff/internal/daemon"
	"github.com/skiffdb/skiff/internal/dashboard"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "advanced",
	Short:   "Start the real-time WebSocket dashboard",
	Long: `Start a WebSocket dashboard server backed by the sync daemon.

The server broadcasts store updates to connected clients:
- snapshot: pending and completed items after each refresh
- sync_result: outcome of each replication pass
- stats: counts and sync counters

Example usage:
  skiff serve                        # Listen on 127.0.0.1:8080
  skiff serve --addr 0.0.0.0:9000    # Custom address

Connect with a WebSocket client:
  ws://127.0.0.1:8080/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ServeAddr = addr
		}

		logger := serviceLogger(cfg, "[skiff] ")

		ctx := context.Background()
		st := openStore(ctx, cfg)
		defer st.Close()

		server, handler := startDashboard(cfg, logger)

		dcfg := daemon.DefaultConfig()
		dcfg.SyncInterval = cfg.SyncInterval
		dcfg.AutoSync = cfg.AutoSync
		dcfg.Logger = logger

		d, err := daemon.New(st, dcfg, handler)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		addr := server.GetAddr()
		fmt.Printf("Dashboard server started on http://%s\n", addr)
		fmt.Printf("WebSocket endpoint: ws://%s/ws\n", addr)
		fmt.Printf("Health check: http://%s/health\n", addr)
		fmt.Println("\nPress Ctrl+C to stop...")

		sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(sigCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("\nShutting down dashboard server...")
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Dashboard server stopped")
	},
}

// startDashboard starts the WebSocket server and returns it with a
// handler wired for daemon events. Exits on listen failure.
func startDashboard(cfg *config.Config, logger *log.Logger) (*dashboard.Server, *dashboard.Handler) {
	server := dashboard.NewServer(&dashboard.Config{
		Addr:   cfg.ServeAddr,
		Logger: logger,
	})

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
		os.Exit(1)
	}

	return server, dashboard.NewHandler(server, logger)
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
