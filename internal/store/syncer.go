package store

import (
	"context"
	"fmt"
	"time"

	libsql "github.com/tursodatabase/go-libsql"
)

// Syncer reconciles the local database file with its remote primary.
//
// The call is atomic and opaque: on success the local file reflects the
// reconciled state, on failure it is untouched. Conflict policy lives
// entirely inside the replication primitive; callers never inspect or merge
// individual records. Implementations other than the production connector
// exist only so tests can substitute the primitive with a stub.
type Syncer interface {
	// Sync performs one replication pass and reports what moved.
	Sync(ctx context.Context) (SyncStats, error)
}

// SyncStats reports the outcome of one replication pass.
type SyncStats struct {
	// FrameNo is the replication frame the local file ended up at.
	FrameNo int
	// FramesSynced is how many frames this pass pulled.
	FramesSynced int
	// Duration is wall-clock time spent in the replication call.
	Duration time.Duration
}

// Sync invokes the replication primitive against the remote primary.
//
// In local mode it returns ErrSyncDisabled. Failures leave the local store
// untouched and fully usable offline; treat them as notices, not fatal.
func (s *Store) Sync(ctx context.Context) (SyncStats, error) {
	if s.conn == nil {
		return SyncStats{}, ErrClosed
	}
	return s.syncer.Sync(ctx)
}

var _ Syncer = (*Store)(nil)

// replicaSyncer drives the embedded replica connector.
type replicaSyncer struct {
	connector *libsql.Connector
}

// Sync pulls remote frames into the local replica. The underlying call does
// not honor cancellation, so ctx is only consulted before starting; an
// individual pass has no timeout.
func (r *replicaSyncer) Sync(ctx context.Context) (SyncStats, error) {
	if err := ctx.Err(); err != nil {
		return SyncStats{}, err
	}

	start := time.Now()
	rep, err := r.connector.Sync()
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to sync with remote: %w", err)
	}

	return SyncStats{
		FrameNo:      rep.FrameNo,
		FramesSynced: rep.FramesSynced,
		Duration:     time.Since(start),
	}, nil
}

// disabledSyncer stands in when no remote descriptor is configured.
type disabledSyncer struct{}

func (disabledSyncer) Sync(ctx context.Context) (SyncStats, error) {
	return SyncStats{}, ErrSyncDisabled
}
