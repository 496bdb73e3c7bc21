package store

import "errors"

// Errors returned by store operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, store.ErrSyncDisabled) {
//	    // local-only mode, nothing to reconcile
//	}
var (
	// ErrSyncDisabled is returned by Sync when no remote connection
	// descriptor was configured. The store is fully usable without a
	// remote; only synchronization is unavailable.
	ErrSyncDisabled = errors.New("remote sync not configured")

	// ErrMigration is returned when a schema migration statement fails.
	// The persisted schema version is never advanced past a failed step.
	ErrMigration = errors.New("schema migration failed")

	// ErrClosed is returned when an operation is attempted on a store
	// that has already been closed.
	ErrClosed = errors.New("store is closed")
)

// IsFatal returns true if the error leaves the application unable to
// continue. Only migration failures qualify: without a current schema no
// other operation is safe. Sync failures are recoverable, the local
// store stays authoritative and usable offline.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMigration)
}
