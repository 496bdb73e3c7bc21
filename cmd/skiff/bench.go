package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skiffdb/skiff/internal/loadtest"
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "maint",
	Short:   "Run a concurrent read load test",
	Long: `Run a load test against a throwaway store.

This command creates a temporary store with the given number of items,
then measures snapshot refresh latency under concurrent readers.

Examples:
  # Default settings (100 readers, 1000 items)
  skiff bench

  # Heavier load
  skiff bench --readers 200 --items 5000

  # Output results as JSON
  skiff bench --json
`,
	Run: runBench,
}

func init() {
	benchCmd.Flags().Int("readers", 100, "Number of concurrent readers to simulate")
	benchCmd.Flags().Int("items", 1000, "Total number of items in the store")
	benchCmd.Flags().Int("reads", 10, "Number of refreshes per reader")
	benchCmd.Flags().Float64("done", 0.3, "Fraction of items already completed (0.0-1.0)")
	benchCmd.Flags().Bool("json", false, "Output results as JSON")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) {
	readers, _ := cmd.Flags().GetInt("readers")
	items, _ := cmd.Flags().GetInt("items")
	reads, _ := cmd.Flags().GetInt("reads")
	donePct, _ := cmd.Flags().GetFloat64("done")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Validate flags
	if readers <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --readers must be positive\n")
		os.Exit(1)
	}
	if items <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --items must be positive\n")
		os.Exit(1)
	}
	if reads <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --reads must be positive\n")
		os.Exit(1)
	}
	if donePct < 0 || donePct > 1 {
		fmt.Fprintf(os.Stderr, "Error: --done must be between 0.0 and 1.0\n")
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "skiff-bench-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	if !jsonOutput {
		fmt.Printf("Creating test store with %d items...\n", items)
	}

	ts, err := loadtest.CreateTestStore(filepath.Join(tmpDir, "bench.db"), items, donePct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ts.Close()

	if !jsonOutput {
		fmt.Printf("Running %d readers x %d refreshes...\n\n", readers, reads)
	}

	stats, err := ts.RunConcurrentReads(readers, reads)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputBenchJSON(readers, items, reads, stats)
	} else {
		stats.PrintStats()
	}

	if stats.Errors > 0 {
		os.Exit(1)
	}
}

func outputBenchJSON(readers, items, reads int, stats *loadtest.LatencyStats) {
	output := map[string]interface{}{
		"config": map[string]interface{}{
			"readers": readers,
			"items":   items,
			"reads":   reads,
		},
		"latency": map[string]interface{}{
			"min_us":  stats.Min.Microseconds(),
			"p50_us":  stats.P50.Microseconds(),
			"mean_us": stats.Mean.Microseconds(),
			"p95_us":  stats.P95.Microseconds(),
			"p99_us":  stats.P99.Microseconds(),
			"max_us":  stats.Max.Microseconds(),
		},
		"queries": stats.TotalQueries,
		"errors":  stats.Errors,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
