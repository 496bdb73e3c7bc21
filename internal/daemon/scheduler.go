package daemon

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skiffdb/skiff/internal/store"
)

// Scheduler drives periodic remote syncs at a fixed interval.
//
// At most one sync pass runs at a time. If a pass outlasts the
// interval, the ticks that fire during it are dropped rather than
// queued, so a slow remote never builds a backlog of pending syncs.
type Scheduler struct {
	syncer   store.Syncer
	interval time.Duration
	logger   *log.Logger
	onResult func(store.SyncStats, error)

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup

	// passMu serializes sync passes across the tick loop and TriggerNow.
	passMu   sync.Mutex
	attempts int64
	failures int64
}

// NewScheduler creates a scheduler for the given syncer.
//
// The scheduler is created stopped; call Start to begin ticking. If
// interval is not positive the default of 2 seconds is used. If logger
// is nil, a default logger writing to stderr is used.
func NewScheduler(syncer store.Syncer, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sched] ", log.LstdFlags)
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger,
	}
}

// OnResult registers a callback invoked after every sync pass, success
// or failure. It must be set before the first Start and is then fixed
// for the scheduler's lifetime.
func (s *Scheduler) OnResult(fn func(store.SyncStats, error)) {
	s.onResult = fn
}

// Start launches the tick loop. It is a no-op if the scheduler is
// already running. A stopped scheduler can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.done)

	s.logger.Printf("Periodic sync every %s", s.interval)
}

// Stop halts the tick loop. When Stop returns, any in-flight pass has
// finished and no further passes will begin until the next Start. It is
// a no-op on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Println("Periodic sync stopped")
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow runs one sync pass immediately. It returns false without
// syncing when another pass is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) bool {
	if !s.passMu.TryLock() {
		return false
	}
	defer s.passMu.Unlock()

	s.runPass(ctx)
	return true
}

// Attempts returns the number of sync passes started since creation.
func (s *Scheduler) Attempts() int64 {
	return atomic.LoadInt64(&s.attempts)
}

// Failures returns the number of sync passes that returned an error.
func (s *Scheduler) Failures() int64 {
	return atomic.LoadInt64(&s.failures)
}

// loop ticks until done is closed. The done channel is passed in so a
// restart with a fresh channel cannot race with an exiting loop.
func (s *Scheduler) loop(done chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ticker.C:
			s.passMu.Lock()
			s.runPass(context.Background())
			s.passMu.Unlock()
		}
	}
}

// runPass executes one sync attempt. Callers must hold passMu.
// Failures are logged and counted; they never stop the loop.
func (s *Scheduler) runPass(ctx context.Context) {
	atomic.AddInt64(&s.attempts, 1)

	stats, err := s.syncer.Sync(ctx)
	if err != nil {
		atomic.AddInt64(&s.failures, 1)
		s.logger.Printf("Sync failed: %v", err)
	} else {
		s.logger.Printf("Synced %d frames in %s", stats.FramesSynced, stats.Duration.Round(time.Millisecond))
	}

	if s.onResult != nil {
		s.onResult(stats, err)
	}
}
