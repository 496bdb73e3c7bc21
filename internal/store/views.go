package store

import (
	"context"
	"fmt"
)

// Snapshot is one consistent materialization of the store, partitioned the
// way the presentation layer consumes it.
type Snapshot struct {
	Pending   []Item `json:"pending" yaml:"pending"`
	Completed []Item `json:"completed" yaml:"completed"`
}

// Total returns the number of items across both partitions.
func (sn Snapshot) Total() int {
	return len(sn.Pending) + len(sn.Completed)
}

// Refresh materializes both partitions inside one transaction, so the
// pending and completed lists are coherent with each other even while a
// sync or another writer is running. Call it at startup, after every
// mutating operation, and after any sync that requested a refresh.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.RunTransaction(ctx, func(tx *Tx) error {
		pending, err := tx.ListByStatus(ctx, false)
		if err != nil {
			return err
		}
		completed, err := tx.ListByStatus(ctx, true)
		if err != nil {
			return err
		}
		snap.Pending = pending
		snap.Completed = completed
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to refresh views: %w", err)
	}
	return snap, nil
}
