package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/skiffdb/skiff/internal/store"
)

// Config holds configuration for the daemon.
type Config struct {
	// SyncInterval is how often the scheduler syncs with the remote.
	SyncInterval time.Duration

	// AutoSync starts the periodic scheduler as part of Start. When
	// false the daemon only syncs on explicit SyncNow calls until
	// EnableAutoSync is invoked.
	AutoSync bool

	// DebounceInterval is how long to wait before publishing a snapshot
	// after a burst of database file events. This batches rapid updates
	// together.
	DebounceInterval time.Duration

	// WatchStoreFile enables refreshing when another process writes the
	// database file.
	WatchStoreFile bool

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval:     2 * time.Second,
		AutoSync:         true,
		DebounceInterval: 100 * time.Millisecond,
		WatchStoreFile:   true,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Events receives daemon state changes. Implementations must be safe
// for concurrent use; callbacks are invoked from daemon goroutines.
type Events interface {
	// SyncCompleted is invoked after every sync pass, success or not.
	SyncCompleted(stats store.SyncStats, err error)

	// SnapshotChanged is invoked with a fresh snapshot whenever the
	// item partitions may have changed.
	SnapshotChanged(snap store.Snapshot)
}

// Daemon orchestrates periodic syncing, database file watching, and
// snapshot publication.
type Daemon struct {
	store  *store.Store
	config *Config
	events Events

	scheduler *Scheduler
	watcher   *StoreWatcher

	refreshMu     sync.Mutex
	refreshQueued bool
	refreshSince  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance for the given store.
//
// Use Start() to begin syncing and watching. If config is nil,
// DefaultConfig is used.
func New(st *store.Store, config *Config, events Events) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		store:  st,
		config: config,
		events: events,
		ctx:    ctx,
		cancel: cancel,
	}

	d.scheduler = NewScheduler(st, config.SyncInterval, config.Logger)
	d.scheduler.OnResult(d.handleSyncResult)

	return d, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
//  1. Run one immediate sync pass when a remote is configured
//  2. Publish an initial snapshot
//  3. Watch the database file for outside writes
//  4. Periodically sync with the remote while auto-sync is enabled
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if d.store.SyncEnabled() {
		// A failed pass is recoverable; the next tick retries.
		d.scheduler.TriggerNow(ctx)
	} else {
		d.config.Logger.Println("No remote configured, running local-only")
	}

	d.publishSnapshot()

	if d.config.WatchStoreFile {
		watcher, err := NewStoreWatcher()
		if err != nil {
			return fmt.Errorf("failed to create store watcher: %w", err)
		}
		if err := watcher.Start(d.store.Path()); err != nil {
			return fmt.Errorf("failed to watch database file: %w", err)
		}
		d.watcher = watcher
		d.config.Logger.Printf("Watching: %s", d.store.Path())

		d.wg.Add(1)
		go d.watchStoreEvents()
	}

	d.wg.Add(1)
	go d.refreshLoop()

	if d.config.AutoSync && d.store.SyncEnabled() {
		d.scheduler.Start()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.scheduler.Stop()
	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// SyncNow triggers an immediate sync pass. It returns false when no
// remote is configured or another pass is already in flight.
func (d *Daemon) SyncNow(ctx context.Context) bool {
	if !d.store.SyncEnabled() {
		return false
	}
	return d.scheduler.TriggerNow(ctx)
}

// EnableAutoSync starts periodic syncing. It is a no-op when already
// enabled or when no remote is configured.
func (d *Daemon) EnableAutoSync() {
	if !d.store.SyncEnabled() {
		d.config.Logger.Println("Cannot enable auto-sync without a remote")
		return
	}
	d.scheduler.Start()
}

// DisableAutoSync stops periodic syncing. When it returns, no further
// scheduled passes will begin.
func (d *Daemon) DisableAutoSync() {
	d.scheduler.Stop()
}

// AutoSyncEnabled reports whether the periodic scheduler is running.
func (d *Daemon) AutoSyncEnabled() bool {
	return d.scheduler.Running()
}

// SyncAttempts returns the number of sync passes started.
func (d *Daemon) SyncAttempts() int64 {
	return d.scheduler.Attempts()
}

// SyncFailures returns the number of failed sync passes.
func (d *Daemon) SyncFailures() int64 {
	return d.scheduler.Failures()
}

// handleSyncResult forwards pass outcomes and queues a snapshot refresh
// after successful passes.
func (d *Daemon) handleSyncResult(stats store.SyncStats, err error) {
	if d.events != nil {
		d.events.SyncCompleted(stats, err)
	}
	if err == nil {
		d.queueRefresh()
	}
}

// watchStoreEvents monitors database file events and queues refreshes.
func (d *Daemon) watchStoreEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			d.queueRefresh()

		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueRefresh marks the snapshot as stale. The refresh loop publishes
// once events settle for a debounce interval.
func (d *Daemon) queueRefresh() {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	d.refreshQueued = true
	d.refreshSince = time.Now()
}

// refreshLoop coalesces queued refreshes and publishes snapshots.
func (d *Daemon) refreshLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.flushRefresh()
		}
	}
}

// flushRefresh publishes a snapshot if one is queued and the debounce
// window has passed.
func (d *Daemon) flushRefresh() {
	d.refreshMu.Lock()
	if !d.refreshQueued || time.Since(d.refreshSince) < d.config.DebounceInterval {
		d.refreshMu.Unlock()
		return
	}
	d.refreshQueued = false
	d.refreshMu.Unlock()

	d.publishSnapshot()
}

// publishSnapshot reads both partitions in one transaction and hands
// the result to the events sink.
func (d *Daemon) publishSnapshot() {
	snap, err := d.store.Refresh(d.ctx)
	if err != nil {
		d.config.Logger.Printf("Error refreshing views: %v", err)
		return
	}
	if d.events != nil {
		d.events.SnapshotChanged(snap)
	}
}
