package daemon

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates the database file was created.
	OpCreate EventOp = iota
	// OpModify indicates the database file was written.
	OpModify
	// OpDelete indicates the database file was removed.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// StoreEvent represents a file system event on the database file.
type StoreEvent struct {
	// Path is the path of the file that changed.
	Path string
	// Op is the operation that occurred (create, modify, delete).
	Op EventOp
}

// StoreWatcher watches the database file for writes made outside this
// process, such as a second skiff instance sharing the same replica.
// It uses fsnotify for cross-platform file system event monitoring.
//
// The watch is placed on the database file's parent directory because
// watching a file directly breaks when SQLite replaces it during
// checkpoints. Events are filtered down to the database file and its
// -wal sibling.
type StoreWatcher struct {
	watcher *fsnotify.Watcher
	events  chan StoreEvent
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	names   map[string]struct{}
}

// NewStoreWatcher creates a new StoreWatcher instance.
// The watcher must be started with Start() before it will emit events.
func NewStoreWatcher() (*StoreWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &StoreWatcher{
		watcher: watcher,
		events:  make(chan StoreEvent, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the directory containing dbPath for changes to
// the database file and its WAL. Returns an error if the directory
// cannot be watched.
func (sw *StoreWatcher) Start(dbPath string) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.running {
		return fmt.Errorf("watcher already running")
	}

	base := filepath.Base(dbPath)
	sw.names = map[string]struct{}{
		base:          {},
		base + "-wal": {},
	}

	dir := filepath.Dir(dbPath)
	if err := sw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch database directory %s: %w", dir, err)
	}

	sw.running = true
	sw.wg.Add(1)
	go sw.processEvents()

	return nil
}

// Stop stops watching for file system events and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (sw *StoreWatcher) Stop() error {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return nil
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.done)

	// Closing the underlying watcher unblocks the event loop.
	if err := sw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	sw.wg.Wait()

	close(sw.events)
	close(sw.errors)

	return nil
}

// Events returns the channel that emits StoreEvent notifications.
// This channel is closed when the watcher is stopped.
func (sw *StoreWatcher) Events() <-chan StoreEvent {
	return sw.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (sw *StoreWatcher) Errors() <-chan error {
	return sw.errors
}

// IsRunning returns true if the watcher is currently running.
func (sw *StoreWatcher) IsRunning() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.running
}

// processEvents is the main event loop that converts fsnotify events
// into StoreEvent notifications.
func (sw *StoreWatcher) processEvents() {
	defer sw.wg.Done()

	for {
		select {
		case <-sw.done:
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}

			if storeEvent, ok := sw.convertEvent(event); ok {
				select {
				case sw.events <- storeEvent:
				case <-sw.done:
					return
				}
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case sw.errors <- err:
			case <-sw.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to a StoreEvent.
// Returns (StoreEvent, true) if the event should be processed,
// or (StoreEvent{}, false) if the event should be ignored.
func (sw *StoreWatcher) convertEvent(event fsnotify.Event) (StoreEvent, bool) {
	if _, ok := sw.names[filepath.Base(event.Name)]; !ok {
		return StoreEvent{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create)
		op = OpDelete
	default:
		// Ignore chmod and other events
		return StoreEvent{}, false
	}

	return StoreEvent{
		Path: event.Name,
		Op:   op,
	}, true
}
