package loadtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// TestCreateTestStore verifies store creation with the expected item mix.
func TestCreateTestStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 500, 0.4)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	if got := len(ts.PendingIDs) + len(ts.DoneIDs); got != 500 {
		t.Errorf("Expected 500 items, got %d", got)
	}
	if len(ts.DoneIDs) == 0 {
		t.Error("Expected some completed items with donePct 0.4")
	}
	if len(ts.PendingIDs) == 0 {
		t.Error("Expected some pending items with donePct 0.4")
	}

	stats := ts.GetStats()
	if stats["total_items"] != 500 {
		t.Errorf("Expected total_items 500, got %v", stats["total_items"])
	}
}

// TestCreateTestStore_Deterministic verifies that two runs with the same
// parameters produce the same partition split.
func TestCreateTestStore_Deterministic(t *testing.T) {
	dir := t.TempDir()

	ts1, err := CreateTestStore(filepath.Join(dir, "a.db"), 200, 0.5)
	if err != nil {
		t.Fatalf("Failed to create first store: %v", err)
	}
	defer ts1.Close()

	ts2, err := CreateTestStore(filepath.Join(dir, "b.db"), 200, 0.5)
	if err != nil {
		t.Fatalf("Failed to create second store: %v", err)
	}
	defer ts2.Close()

	if len(ts1.DoneIDs) != len(ts2.DoneIDs) {
		t.Errorf("Expected identical done counts, got %d and %d",
			len(ts1.DoneIDs), len(ts2.DoneIDs))
	}
}

// TestConcurrentReads_Small runs a small smoke test with 10 readers.
func TestConcurrentReads_Small(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 500, 0.3)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	stats, err := ts.RunConcurrentReads(10, 5)
	if err != nil {
		t.Fatalf("Concurrent reads failed: %v", err)
	}

	if stats.TotalQueries != 50 {
		t.Errorf("Expected 50 refreshes, got %d", stats.TotalQueries)
	}
	if stats.Errors != 0 {
		t.Errorf("Expected no errors, got %d", stats.Errors)
	}

	// Sanity check: refreshes should complete reasonably fast
	if stats.Mean > 100*time.Millisecond {
		t.Errorf("Mean latency too high: %v", stats.Mean)
	}

	t.Logf("Small load test: P50=%v P95=%v P99=%v", stats.P50, stats.P95, stats.P99)
}

// TestConcurrentReads_100Readers is the main load test, 100 readers
// refreshing the partitions simultaneously.
func TestConcurrentReads_100Readers(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 2000, 0.3)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	start := time.Now()
	stats, err := ts.RunConcurrentReads(100, 10)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Concurrent reads failed: %v", err)
	}

	t.Logf("Load test completed in %v", elapsed)
	stats.PrintStats()

	if stats.TotalQueries != 1000 {
		t.Errorf("Expected 1000 refreshes, got %d", stats.TotalQueries)
	}
	if stats.Errors != 0 {
		t.Errorf("Expected no errors, got %d", stats.Errors)
	}

	// Performance targets, lenient for CI environments
	if stats.P95 < 200*time.Millisecond {
		t.Logf("PASSED: P95 latency %v is under 200ms", stats.P95)
	} else if stats.P95 < 500*time.Millisecond {
		t.Logf("ACCEPTABLE: P95 latency %v is under 500ms (CI environment)", stats.P95)
	} else {
		t.Errorf("FAILED: P95 latency %v exceeds 500ms", stats.P95)
	}
}

// TestConsistentSnapshots verifies readers never observe a torn
// snapshot while a writer is active.
func TestConsistentSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 500, 0.5)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	if err := ts.VerifyConsistentSnapshots(50, 2*time.Second); err != nil {
		t.Errorf("Snapshot consistency check failed: %v", err)
	}
}

// TestDataConsistency verifies repeated refreshes of a quiet store
// return identical partitions.
func TestDataConsistency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 300, 0.4)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	ctx := context.Background()
	first, err := ts.Store.Refresh(ctx)
	if err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		snap, err := ts.Store.Refresh(ctx)
		if err != nil {
			t.Fatalf("Refresh %d failed: %v", i, err)
		}
		if len(snap.Pending) != len(first.Pending) {
			t.Errorf("Refresh %d: pending count changed from %d to %d",
				i, len(first.Pending), len(snap.Pending))
		}
		if len(snap.Completed) != len(first.Completed) {
			t.Errorf("Refresh %d: completed count changed from %d to %d",
				i, len(first.Completed), len(snap.Completed))
		}
	}
}

// TestLargeStore exercises a 10k item store. Skipped in short mode.
func TestLargeStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping large store test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 10000, 0.3)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	stats, err := ts.RunConcurrentReads(50, 10)
	if err != nil {
		t.Fatalf("Concurrent reads failed: %v", err)
	}

	stats.PrintStats()

	if stats.Errors != 0 {
		t.Errorf("Expected no errors, got %d", stats.Errors)
	}
}

// TestStressTest pushes 200 readers against the store. Skipped in
// short mode.
func TestStressTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "loadtest.db")

	ts, err := CreateTestStore(dbPath, 5000, 0.3)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	stats, err := ts.RunConcurrentReads(200, 5)
	if err != nil {
		t.Fatalf("Stress test failed: %v", err)
	}

	stats.PrintStats()

	if stats.Errors != 0 {
		t.Errorf("Expected no errors under stress, got %d", stats.Errors)
	}
}

func BenchmarkRefresh(b *testing.B) {
	dbPath := filepath.Join(b.TempDir(), "bench.db")

	ts, err := CreateTestStore(dbPath, 1000, 0.3)
	if err != nil {
		b.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ts.Store.Refresh(ctx); err != nil {
			b.Fatalf("Refresh failed: %v", err)
		}
	}
}

func benchmarkConcurrentReads(b *testing.B, readers int) {
	dbPath := filepath.Join(b.TempDir(), "bench.db")

	ts, err := CreateTestStore(dbPath, 1000, 0.3)
	if err != nil {
		b.Fatalf("Failed to create test store: %v", err)
	}
	defer ts.Close()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := ts.RunConcurrentReads(readers, 5); err != nil {
			b.Fatalf("Concurrent reads failed: %v", err)
		}
	}
}

func BenchmarkConcurrentReads10(b *testing.B)  { benchmarkConcurrentReads(b, 10) }
func BenchmarkConcurrentReads50(b *testing.B)  { benchmarkConcurrentReads(b, 50) }
func BenchmarkConcurrentReads100(b *testing.B) { benchmarkConcurrentReads(b, 100) }

func BenchmarkCreateTestStore(b *testing.B) {
	dir := b.TempDir()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		dbPath := filepath.Join(dir, fmt.Sprintf("bench-%d.db", i))
		ts, err := CreateTestStore(dbPath, 500, 0.3)
		if err != nil {
			b.Fatalf("Failed to create test store: %v", err)
		}
		_ = ts.Close()
	}
}
