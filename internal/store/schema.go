package store

import (
	"context"
	"errors"
	"fmt"
)

// SchemaVersion is the schema version this build targets. A fresh database
// starts at 0 (the PRAGMA user_version default) and is migrated forward.
const SchemaVersion = 2

// migration brings the store to version once its statements have run.
type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS items (
				id    INTEGER PRIMARY KEY,
				done  INTEGER NOT NULL DEFAULT 0,
				value TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_items_done ON items(done, id)`,
		},
	},
}

// EnsureSchema brings the database up to SchemaVersion.
//
// It first performs one Sync pass so a freshly opened replica migrates the
// remote's schema state rather than an empty file; that side effect happens
// even when the local version is already current, so callers must not assume
// the call is side-effect-free. A failed pull is a notice, not an error: the
// store must stay usable offline. Migration failures are fatal (ErrMigration)
// and never advance the persisted version.
//
// Idempotent: when the persisted version already meets the target no schema
// statement runs.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.ensureSchemaAt(ctx, SchemaVersion, migrations)
}

func (s *Store) ensureSchemaAt(ctx context.Context, target int, migs []migration) error {
	// Sync before inspecting local state. Migrating first could diverge
	// the local schema from changes already applied on the remote.
	if _, err := s.Sync(ctx); err != nil && !errors.Is(err, ErrSyncDisabled) {
		s.logger.Printf("sync before migration failed (continuing offline): %v", err)
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= target {
		return nil
	}

	// All pending steps and the version bump commit as one unit, so a
	// failure anywhere leaves the persisted version untouched.
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range migs {
		if m.version <= version || m.version > target {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%w: version %d: %w", ErrMigration, m.version, err)
			}
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", target)); err != nil {
		return fmt.Errorf("%w: failed to set version %d: %w", ErrMigration, target, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit migration to version %d: %w", ErrMigration, target, err)
	}
	return nil
}

// schemaVersion reads the persisted PRAGMA user_version.
func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}
