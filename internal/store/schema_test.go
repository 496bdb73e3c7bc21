package store

import (
	"context"
	"errors"
	"testing"
)

func TestEnsureSchema_FreshStore(t *testing.T) {
	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != 0 {
		t.Errorf("fresh store version = %d, want 0", version)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}

	version, err = st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("version = %d, want %d", version, SchemaVersion)
	}

	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'`
	if err := st.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Error("items table does not exist after EnsureSchema")
	}
}

func TestEnsureSchema_TargetVersionOne(t *testing.T) {
	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.ensureSchemaAt(ctx, 1, migrations[:1]); err != nil {
		t.Fatalf("ensureSchemaAt(1) failed: %v", err)
	}

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'`
	if err := st.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Error("items table does not exist at version 1")
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	if err := st.Add(ctx, "survives re-migration"); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema() failed: %v", err)
	}

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("version = %d after re-run, want %d", version, SchemaVersion)
	}

	pending, err := st.ListByStatus(ctx, false)
	if err != nil {
		t.Fatalf("ListByStatus() failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Value != "survives re-migration" {
		t.Errorf("stored records altered by idempotent EnsureSchema: %+v", pending)
	}
}

func TestEnsureSchema_SyncsBeforeMigrating(t *testing.T) {
	stub := &stubSyncer{}
	opts := DefaultOptions(testDBPath(t))
	opts.Syncer = stub

	st, err := Open(opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	if stub.Calls() != 1 {
		t.Fatalf("syncer called %d times during first EnsureSchema, want 1", stub.Calls())
	}

	// The sync side effect fires even when the version is already current.
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema() failed: %v", err)
	}
	if stub.Calls() != 2 {
		t.Errorf("syncer called %d times after second EnsureSchema, want 2", stub.Calls())
	}
}

func TestEnsureSchema_SyncFailureIsNotFatal(t *testing.T) {
	stub := &stubSyncer{err: errors.New("network unreachable")}
	opts := DefaultOptions(testDBPath(t))
	opts.Syncer = stub

	st, err := Open(opts)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() failed despite recoverable sync error: %v", err)
	}

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("version = %d, want %d (migration must proceed offline)", version, SchemaVersion)
	}
}

func TestEnsureSchema_FailedMigrationKeepsVersion(t *testing.T) {
	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.ensureSchemaAt(ctx, 1, migrations[:1]); err != nil {
		t.Fatalf("ensureSchemaAt(1) failed: %v", err)
	}

	broken := []migration{
		migrations[0],
		{version: 2, statements: []string{`CREATE SYNTAX ERROR`}},
	}
	err = st.ensureSchemaAt(ctx, 2, broken)
	if err == nil {
		t.Fatal("ensureSchemaAt() with broken migration succeeded, want error")
	}
	if !errors.Is(err, ErrMigration) {
		t.Errorf("error = %v, want ErrMigration", err)
	}
	if !IsFatal(err) {
		t.Error("IsFatal() = false for migration failure, want true")
	}

	version, verr := st.schemaVersion(ctx)
	if verr != nil {
		t.Fatalf("schemaVersion() failed: %v", verr)
	}
	if version != 1 {
		t.Errorf("version = %d after failed migration, want 1 (unchanged)", version)
	}
}

func TestEnsureSchema_PartialStepRollsBack(t *testing.T) {
	st, err := Open(DefaultOptions(testDBPath(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	broken := []migration{
		{
			version: 1,
			statements: []string{
				`CREATE TABLE IF NOT EXISTS items (
					id    INTEGER PRIMARY KEY,
					done  INTEGER NOT NULL DEFAULT 0,
					value TEXT NOT NULL
				)`,
				`THIS IS NOT SQL`,
			},
		},
	}
	if err := st.ensureSchemaAt(ctx, 1, broken); err == nil {
		t.Fatal("ensureSchemaAt() succeeded with a failing statement, want error")
	}

	// The successful first statement must not survive the rollback.
	var count int
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'`
	if err := st.conn.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Error("items table exists after rolled-back migration")
	}

	version, err := st.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schemaVersion() failed: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d after rollback, want 0", version)
	}
}
