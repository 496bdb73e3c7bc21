// Package daemon provides the background process that keeps a skiff
// store fresh: periodic remote syncs, database file watching, and
// snapshot publication.
//
// # Architecture
//
// The daemon consists of several components:
//
//   - Scheduler: Fixed-interval sync passes with overlap protection
//   - StoreWatcher: Cross-platform database file event monitoring using fsnotify
//   - Daemon: Orchestrates the scheduler, watcher, and snapshot refreshes
//
// # Scheduling
//
// The Scheduler runs one sync pass per tick and never overlaps passes.
// When a pass outlasts the interval, the ticks that fire during it are
// dropped, so a slow or unreachable remote degrades to back-to-back
// passes instead of a growing queue. Failed passes are logged and
// counted; the loop keeps ticking.
//
//	sched := daemon.NewScheduler(st, 2*time.Second, nil)
//	sched.Start()
//	defer sched.Stop()
//
// Stop is deterministic: when it returns, any in-flight pass has
// finished and no further passes begin until the next Start. A stopped
// scheduler can be restarted, which is how auto-sync toggling works.
//
// # File Watching
//
// The StoreWatcher component provides a high-level abstraction over
// fsnotify for the database file:
//
//	sw, err := daemon.NewStoreWatcher()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sw.Stop()
//
//	if err := sw.Start("/path/to/skiff.db"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range sw.Events() {
//	    fmt.Printf("%s: %s\n", event.Op, event.Path)
//	}
//
// The watch covers the database file and its -wal sibling so writes
// that land only in the WAL are still observed.
//
// # Daemon Lifecycle
//
// Daemon.Start blocks until the context is cancelled:
//
//	d, err := daemon.New(st, daemon.DefaultConfig(), handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// On start the daemon runs one immediate sync pass (when a remote is
// configured), publishes an initial snapshot, and then keeps both fresh
// in the background. Snapshot refreshes triggered by file events are
// debounced so a burst of writes produces a single publication.
//
// # Error Handling
//
// Sync failures are recoverable. The daemon logs them, reports them to
// the Events sink, and retries on the next tick. Only Start-time setup
// failures (watcher creation, unwatchable directory) are returned as
// errors.
//
// # Graceful Shutdown
//
// Call Stop() or cancel the Start context. Stop will:
//  1. Halt the scheduler, waiting out any in-flight pass
//  2. Stop the file watcher
//  3. Wait for all daemon goroutines to finish
package daemon
