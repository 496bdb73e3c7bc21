// Package loadtest provides load testing utilities for the skiff store.
//
// This package simulates many concurrent readers refreshing the item
// partitions to validate that the store serves consistent snapshots
// with low query latency, including while a writer keeps inserting.
package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/skiffdb/skiff/internal/store"
)

// TestStore represents a populated store for load testing.
type TestStore struct {
	Store      *store.Store
	PendingIDs []int64
	DoneIDs    []int64
	TotalItems int
	DonePct    float64
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration // Median
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
	Durations    []time.Duration
}

// CreateTestStore creates a populated store at dbPath.
//
// The store is filled with numItems items in one transaction, with
// approximately donePct of them already completed. A deterministic
// seed keeps runs reproducible.
func CreateTestStore(dbPath string, numItems int, donePct float64) (*TestStore, error) {
	st, err := store.Open(store.DefaultOptions(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// Optimize connection pool for high concurrency testing
	st.RawDB().SetMaxOpenConns(150)
	st.RawDB().SetMaxIdleConns(50)
	st.RawDB().SetConnMaxLifetime(10 * time.Minute)

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ts := &TestStore{
		Store:      st,
		TotalItems: numItems,
		DonePct:    donePct,
	}

	// Use deterministic random for reproducibility
	rng := rand.New(rand.NewSource(42))

	values := generateValues(numItems)
	err = st.RunTransaction(ctx, func(tx *store.Tx) error {
		for _, v := range values {
			done := rng.Float64() < donePct
			if err := tx.Insert(ctx, v, done); err != nil {
				return fmt.Errorf("failed to insert %q: %w", v, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	snap, err := st.Refresh(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to read back items: %w", err)
	}
	for _, item := range snap.Pending {
		ts.PendingIDs = append(ts.PendingIDs, item.ID)
	}
	for _, item := range snap.Completed {
		ts.DoneIDs = append(ts.DoneIDs, item.ID)
	}

	return ts, nil
}

// Close closes the test store connection.
func (ts *TestStore) Close() error {
	if ts.Store != nil {
		return ts.Store.Close()
	}
	return nil
}

// RunConcurrentReads simulates N concurrent readers refreshing the
// partitions.
//
// Each reader performs readsPerReader refreshes, recording latency for
// each. Returns aggregated latency statistics.
func (ts *TestStore) RunConcurrentReads(numReaders int, readsPerReader int) (*LatencyStats, error) {
	var wg sync.WaitGroup
	var allDurations []time.Duration
	var errorCount int

	resultsChan := make(chan []time.Duration, numReaders)
	errorsChan := make(chan error, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			durations := make([]time.Duration, 0, readsPerReader)
			ctx := context.Background()

			for j := 0; j < readsPerReader; j++ {
				start := time.Now()

				_, err := ts.Store.Refresh(ctx)
				elapsed := time.Since(start)

				durations = append(durations, elapsed)

				if err != nil {
					errorsChan <- fmt.Errorf("reader %d refresh %d failed: %w", readerID, j, err)
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	for err := range errorsChan {
		if err != nil {
			errorCount++
			fmt.Printf("Error: %v\n", err)
		}
	}

	for durations := range resultsChan {
		allDurations = append(allDurations, durations...)
	}

	if len(allDurations) == 0 {
		return nil, fmt.Errorf("no successful refreshes completed")
	}

	stats := computeLatencyStats(allDurations)
	stats.Errors = errorCount

	return stats, nil
}

// VerifyConsistentSnapshots runs mixed readers and one writer for the
// given duration.
//
// Every refreshed snapshot is checked against the partition invariants:
// pending items are not done, completed items are, values are non-empty,
// and ids ascend within each partition. Any violation means a reader
// observed a torn snapshot.
func (ts *TestStore) VerifyConsistentSnapshots(numReaders int, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	errorsChan := make(chan error, numReaders+1)

	// One writer keeps the partitions moving.
	wg.Add(1)
	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			default:
				value := fmt.Sprintf("Concurrent item %05d", i)
				if err := ts.Store.Add(ctx, value); err != nil && ctx.Err() == nil {
					errorsChan <- fmt.Errorf("writer add failed: %w", err)
					return
				}
				time.Sleep(1 * time.Millisecond)
			}
		}
	}()

	// Launch reader goroutines
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					snap, err := ts.Store.Refresh(ctx)
					if err != nil && ctx.Err() == nil {
						errorsChan <- fmt.Errorf("reader %d refresh failed: %w", readerID, err)
						return
					}
					if err != nil {
						return
					}

					if err := checkSnapshot(snap); err != nil {
						errorsChan <- fmt.Errorf("reader %d: %w", readerID, err)
						return
					}

					// Small sleep to avoid hammering
					time.Sleep(1 * time.Millisecond)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errorsChan)

	for err := range errorsChan {
		if err != nil {
			return err
		}
	}

	return nil
}

// checkSnapshot validates the partition invariants on one snapshot.
func checkSnapshot(snap store.Snapshot) error {
	var lastID int64
	for _, item := range snap.Pending {
		if item.Done {
			return fmt.Errorf("done item %d in pending partition", item.ID)
		}
		if item.Value == "" {
			return fmt.Errorf("item %d has empty value", item.ID)
		}
		if item.ID <= lastID {
			return fmt.Errorf("pending ids out of order: %d after %d", item.ID, lastID)
		}
		lastID = item.ID
	}

	lastID = 0
	for _, item := range snap.Completed {
		if !item.Done {
			return fmt.Errorf("pending item %d in completed partition", item.ID)
		}
		if item.Value == "" {
			return fmt.Errorf("item %d has empty value", item.ID)
		}
		if item.ID <= lastID {
			return fmt.Errorf("completed ids out of order: %d after %d", item.ID, lastID)
		}
		lastID = item.ID
	}

	return nil
}

// generateValues creates item values with a realistic shape.
func generateValues(count int) []string {
	categories := []string{"errand", "chore", "project"}

	values := make([]string, count)
	for i := 0; i < count; i++ {
		values[i] = fmt.Sprintf("Item %05d (%s)", i, categories[i%len(categories)])
	}
	return values
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	// Sort durations for percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	// Calculate mean
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	// Calculate percentiles
	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[len(sorted)*95/100]
	p99 := sorted[len(sorted)*99/100]

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         mean,
		P50:          p50,
		P95:          p95,
		P99:          p99,
		TotalQueries: len(durations),
		Durations:    sorted,
	}
}

// PrintStats formats and prints latency statistics.
func (s *LatencyStats) PrintStats() {
	fmt.Printf("Latency Statistics:\n")
	fmt.Printf("  Total Queries: %d\n", s.TotalQueries)
	fmt.Printf("  Errors:        %d\n", s.Errors)
	fmt.Printf("  Min:           %v\n", s.Min)
	fmt.Printf("  P50 (Median):  %v\n", s.P50)
	fmt.Printf("  Mean:          %v\n", s.Mean)
	fmt.Printf("  P95:           %v\n", s.P95)
	fmt.Printf("  P99:           %v\n", s.P99)
	fmt.Printf("  Max:           %v\n", s.Max)
}

// GetStats returns statistics about the test store.
func (ts *TestStore) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total_items":   ts.TotalItems,
		"pending_items": len(ts.PendingIDs),
		"done_items":    len(ts.DoneIDs),
		"done_percent":  float64(len(ts.DoneIDs)) / float64(ts.TotalItems) * 100,
	}
}
