// Package store provides the embedded, transactional item store and its
// synchronization bridge to a remote primary.
//
// The store is a single SQLite file that mirrors a remote authoritative
// libSQL/Turso database. All reads and writes go against the local file, so
// the application keeps working offline; an explicit Sync call reconciles the
// local file with the remote.
//
// # Modes
//
// The store opens in one of two modes, decided by the connection descriptor:
//
//   - Replica mode: a remote URL and auth token are configured. The file is
//     opened through the libSQL embedded-replica connector and Sync pulls
//     remote frames into the local file.
//   - Local mode: no remote is configured. The file is opened with the
//     pure-Go SQLite driver, Sync returns ErrSyncDisabled, and everything
//     else behaves identically.
//
// # Usage
//
//	st, err := store.Open(store.DefaultOptions(".skiff/skiff.db"))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	// Migrate before anything else touches the store. EnsureSchema also
//	// performs one Sync call first, so a fresh replica starts from the
//	// remote state rather than an empty file.
//	if err := st.EnsureSchema(ctx); err != nil {
//	    return err
//	}
//
//	if err := st.Add(ctx, "Buy milk"); err != nil {
//	    return err
//	}
//	snap, err := st.Refresh(ctx)
//
// # Transactions
//
// RunTransaction scopes a body to one transaction; every statement the body
// issues commits or rolls back as a unit. Two ListByStatus calls inside one
// body observe a single consistent snapshot, which is what Refresh relies on
// to keep the pending and completed partitions coherent with each other.
//
// # Concurrency
//
// The *sql.DB pool serializes access on SQLite's own locking (WAL mode), so
// a Store is safe for concurrent use from multiple goroutines and from other
// processes sharing the same file. The replication primitive is opaque: the
// store never inspects what a sync changed and never merges records itself.
package store
