package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skiffdb/skiff/internal/store"
	"github.com/skiffdb/skiff/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show store status",
	Long: `Display the current status of the local store.

Shows:
  - Database file location and size
  - Mode (local or replica) and schema version
  - Pending and completed item counts`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
			os.Exit(1)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(stats); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("\n%s\n\n", ui.Title("Skiff Store Status"))
		fmt.Printf("Location: %s\n", stats.Path)
		fmt.Printf("Size: %s\n", formatSize(stats.SizeBytes))
		fmt.Printf("Mode: %s\n", describeMode(stats.Mode))
		fmt.Printf("Schema version: %d\n", stats.SchemaVersion)
		fmt.Printf("Pending: %d\n", stats.Pending)
		fmt.Printf("Completed: %d\n", stats.Completed)
		fmt.Println()
	},
}

func describeMode(mode store.Mode) string {
	if mode == store.ModeReplica {
		return "replica (remote sync enabled)"
	}
	return "local (no remote configured)"
}

func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}
