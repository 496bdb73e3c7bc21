package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// testDBPath returns a temporary path for test databases.
func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// setupTestStore opens a local-mode store with the schema applied.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	return st
}

// stubSyncer substitutes the replication primitive in tests.
type stubSyncer struct {
	mu    sync.Mutex
	calls int
	stats SyncStats
	err   error
}

func (f *stubSyncer) Sync(ctx context.Context) (SyncStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.stats, f.err
}

func (f *stubSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestOpen_Success(t *testing.T) {
	path := testDBPath(t)
	st, err := Open(DefaultOptions(path))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	if st.Path() != path {
		t.Errorf("Path() = %q, want %q", st.Path(), path)
	}
	if st.Mode() != ModeLocal {
		t.Errorf("Mode() = %q, want %q", st.Mode(), ModeLocal)
	}
	if st.RemoteConfigured() {
		t.Error("RemoteConfigured() = true for local-only options")
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dirs", "test.db")
	st, err := Open(DefaultOptions(path))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory was not created: %v", err)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatal("Open() with empty path succeeded, want error")
	}
}

func TestAdd_CreatesPendingItem(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "Buy milk"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	pending, err := st.ListByStatus(ctx, false)
	if err != nil {
		t.Fatalf("ListByStatus(false) failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending item, got %d", len(pending))
	}
	if pending[0].Value != "Buy milk" {
		t.Errorf("Value = %q, want 'Buy milk'", pending[0].Value)
	}
	if pending[0].Done {
		t.Error("new item has done = true, want false")
	}
}

func TestAdd_EmptyValueIsNoOp(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "keep"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err := st.Add(ctx, ""); err != nil {
		t.Fatalf("Add(\"\") returned error: %v", err)
	}

	pending, err := st.ListByStatus(ctx, false)
	if err != nil {
		t.Fatalf("ListByStatus(false) failed: %v", err)
	}
	completed, err := st.ListByStatus(ctx, true)
	if err != nil {
		t.Fatalf("ListByStatus(true) failed: %v", err)
	}
	if len(pending) != 1 || len(completed) != 0 {
		t.Errorf("partitions = %d pending / %d completed, want 1 / 0",
			len(pending), len(completed))
	}
}

func TestMarkDone_MovesItem(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "task"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	pending, err := st.ListByStatus(ctx, false)
	if err != nil {
		t.Fatalf("ListByStatus(false) failed: %v", err)
	}
	id := pending[0].ID

	changed, err := st.MarkDone(ctx, id)
	if err != nil {
		t.Fatalf("MarkDone() failed: %v", err)
	}
	if !changed {
		t.Error("MarkDone() = false, want true for existing item")
	}

	pending, _ = st.ListByStatus(ctx, false)
	completed, _ := st.ListByStatus(ctx, true)
	if len(pending) != 0 || len(completed) != 1 {
		t.Fatalf("partitions = %d pending / %d completed, want 0 / 1",
			len(pending), len(completed))
	}
	if completed[0].ID != id {
		t.Errorf("completed item id = %d, want %d", completed[0].ID, id)
	}
}

func TestMarkDone_Idempotent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "task"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	pending, _ := st.ListByStatus(ctx, false)
	id := pending[0].ID

	if _, err := st.MarkDone(ctx, id); err != nil {
		t.Fatalf("first MarkDone() failed: %v", err)
	}
	if _, err := st.MarkDone(ctx, id); err != nil {
		t.Fatalf("second MarkDone() failed: %v", err)
	}

	completed, _ := st.ListByStatus(ctx, true)
	if len(completed) != 1 {
		t.Errorf("expected 1 completed item after repeated MarkDone, got %d", len(completed))
	}
}

func TestMarkDone_MissingID(t *testing.T) {
	st := setupTestStore(t)

	changed, err := st.MarkDone(context.Background(), 9999)
	if err != nil {
		t.Fatalf("MarkDone() on missing id returned error: %v", err)
	}
	if changed {
		t.Error("MarkDone() = true for missing id, want false")
	}
}

func TestDelete_RemovesFromEitherPartition(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "pending one"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := st.Add(ctx, "done one"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	pending, _ := st.ListByStatus(ctx, false)
	if _, err := st.MarkDone(ctx, pending[1].ID); err != nil {
		t.Fatalf("MarkDone() failed: %v", err)
	}

	for _, id := range []int64{pending[0].ID, pending[1].ID} {
		removed, err := st.Delete(ctx, id)
		if err != nil {
			t.Fatalf("Delete(%d) failed: %v", id, err)
		}
		if !removed {
			t.Errorf("Delete(%d) = false, want true", id)
		}
	}

	p, _ := st.ListByStatus(ctx, false)
	c, _ := st.ListByStatus(ctx, true)
	if len(p) != 0 || len(c) != 0 {
		t.Errorf("partitions = %d / %d after deleting everything, want 0 / 0", len(p), len(c))
	}
}

func TestDelete_MissingID(t *testing.T) {
	st := setupTestStore(t)

	removed, err := st.Delete(context.Background(), 9999)
	if err != nil {
		t.Fatalf("Delete() on missing id returned error: %v", err)
	}
	if removed {
		t.Error("Delete() = true for missing id, want false")
	}
}

func TestListByStatus_InsertionOrder(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := st.Add(ctx, fmt.Sprintf("item %d", i)); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	pending, err := st.ListByStatus(ctx, false)
	if err != nil {
		t.Fatalf("ListByStatus() failed: %v", err)
	}
	if len(pending) != 5 {
		t.Fatalf("expected 5 items, got %d", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].ID <= pending[i-1].ID {
			t.Errorf("ids out of order: %d after %d", pending[i].ID, pending[i-1].ID)
		}
	}
}

func TestClearCompleted(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := st.Add(ctx, fmt.Sprintf("item %d", i)); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	pending, _ := st.ListByStatus(ctx, false)
	for _, it := range pending[:3] {
		if _, err := st.MarkDone(ctx, it.ID); err != nil {
			t.Fatalf("MarkDone() failed: %v", err)
		}
	}

	n, err := st.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ClearCompleted() = %d, want 3", n)
	}

	p, _ := st.ListByStatus(ctx, false)
	c, _ := st.ListByStatus(ctx, true)
	if len(p) != 1 || len(c) != 0 {
		t.Errorf("partitions = %d / %d after clear, want 1 / 0", len(p), len(c))
	}
}

func TestRunTransaction_RollbackOnError(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	wantErr := errors.New("body failed")
	err := st.RunTransaction(ctx, func(tx *Tx) error {
		if err := tx.Add(ctx, "never visible"); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunTransaction() error = %v, want %v", err, wantErr)
	}

	pending, _ := st.ListByStatus(ctx, false)
	if len(pending) != 0 {
		t.Errorf("insert survived a rolled-back transaction: %d items", len(pending))
	}
}

func TestRunTransaction_Commit(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	err := st.RunTransaction(ctx, func(tx *Tx) error {
		if err := tx.Add(ctx, "first"); err != nil {
			return err
		}
		return tx.Add(ctx, "second")
	})
	if err != nil {
		t.Fatalf("RunTransaction() failed: %v", err)
	}

	pending, _ := st.ListByStatus(ctx, false)
	if len(pending) != 2 {
		t.Errorf("expected 2 items after committed transaction, got %d", len(pending))
	}
}

func TestSync_DisabledWithoutRemote(t *testing.T) {
	st := setupTestStore(t)

	_, err := st.Sync(context.Background())
	if !errors.Is(err, ErrSyncDisabled) {
		t.Fatalf("Sync() error = %v, want ErrSyncDisabled", err)
	}
	if IsFatal(err) {
		t.Error("IsFatal(ErrSyncDisabled) = true, want false")
	}
}

func TestSync_SyncerOverride(t *testing.T) {
	stub := &stubSyncer{stats: SyncStats{FrameNo: 7, FramesSynced: 3}}
	opts := DefaultOptions(testDBPath(t))
	opts.Syncer = stub

	st, err := Open(opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	stats, err := st.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if stats.FrameNo != 7 || stats.FramesSynced != 3 {
		t.Errorf("stats = %+v, want FrameNo 7 FramesSynced 3", stats)
	}
	if stub.Calls() != 1 {
		t.Errorf("stub syncer called %d times, want 1", stub.Calls())
	}
}

func TestStats(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Add(ctx, fmt.Sprintf("item %d", i)); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}
	pending, _ := st.ListByStatus(ctx, false)
	if _, err := st.MarkDone(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkDone() failed: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	if stats.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", stats.SchemaVersion, SchemaVersion)
	}
	if stats.Mode != ModeLocal {
		t.Errorf("Mode = %q, want %q", stats.Mode, ModeLocal)
	}
}

func TestClose_Idempotent(t *testing.T) {
	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := st.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func BenchmarkAdd(b *testing.B) {
	st, err := Open(DefaultOptions(filepath.Join(b.TempDir(), "bench.db")))
	if err != nil {
		b.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		b.Fatalf("EnsureSchema() failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := st.Add(ctx, "benchmark item"); err != nil {
			b.Fatalf("Add() failed: %v", err)
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	st, err := Open(DefaultOptions(filepath.Join(b.TempDir(), "bench.db")))
	if err != nil {
		b.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		b.Fatalf("EnsureSchema() failed: %v", err)
	}
	for i := 0; i < 200; i++ {
		if err := st.Add(ctx, fmt.Sprintf("item %d", i)); err != nil {
			b.Fatalf("Add() failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := st.Refresh(ctx); err != nil {
			b.Fatalf("Refresh() failed: %v", err)
		}
	}
}
