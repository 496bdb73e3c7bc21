package store

import (
	"context"
	"fmt"
)

// Tx exposes the store's typed operations inside a single transaction.
// Obtain one through RunTransaction; never retain it past the body.
type Tx struct {
	tx querier
}

// RunTransaction runs fn inside one transaction. Every statement fn issues
// through the Tx commits or rolls back as a unit: if fn returns an error all
// its effects are rolled back and the error propagates unchanged; otherwise
// the effects are durably committed before RunTransaction returns.
//
// Reads inside fn observe a single consistent snapshot. Concurrent writes,
// including a replication pass, are never partially visible to it.
func (s *Store) RunTransaction(ctx context.Context, fn func(*Tx) error) error {
	if s.conn == nil {
		return ErrClosed
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Add inserts a new pending item. Empty text is a silent no-op.
func (t *Tx) Add(ctx context.Context, value string) error {
	return addItem(ctx, t.tx, value)
}

// Insert inserts an item with an explicit done flag. Used by import, which
// must restore completed items as completed.
func (t *Tx) Insert(ctx context.Context, value string, done bool) error {
	return insertItem(ctx, t.tx, value, done)
}

// MarkDone marks the item as completed; missing ids are silent no-ops.
func (t *Tx) MarkDone(ctx context.Context, id int64) (bool, error) {
	return markDone(ctx, t.tx, id)
}

// Delete removes the item; missing ids are silent no-ops.
func (t *Tx) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteItem(ctx, t.tx, id)
}

// ListByStatus returns matching items ordered by ascending id.
func (t *Tx) ListByStatus(ctx context.Context, done bool) ([]Item, error) {
	return listByStatus(ctx, t.tx, done)
}

// ClearCompleted removes every completed item.
func (t *Tx) ClearCompleted(ctx context.Context) (int64, error) {
	return clearCompleted(ctx, t.tx)
}

// CountByStatus counts items matching the done flag.
func (t *Tx) CountByStatus(ctx context.Context, done bool) (int, error) {
	return countByStatus(ctx, t.tx, done)
}
