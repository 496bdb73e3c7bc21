package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Item is one record in the store.
//
// The id is assigned by the database on insert and never changes. The done
// flag only ever transitions from false to true, and the value is fixed at
// creation.
type Item struct {
	ID    int64  `json:"id" yaml:"id"`
	Done  bool   `json:"done" yaml:"done"`
	Value string `json:"value" yaml:"value"`
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same statement helpers serve both the store and its transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Add inserts a new pending item. Empty text is a silent no-op: no record is
// created and no error is returned. The new id is not reported; callers
// re-read via Refresh or ListByStatus.
func (s *Store) Add(ctx context.Context, value string) error {
	return addItem(ctx, s.conn, value)
}

// MarkDone marks the item as completed. A missing id is a silent no-op; the
// returned bool reports whether a row actually changed. Re-invoking on an
// already completed item is idempotent.
func (s *Store) MarkDone(ctx context.Context, id int64) (bool, error) {
	return markDone(ctx, s.conn, id)
}

// Delete removes the item with the given id. A missing id is a silent no-op;
// the returned bool reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteItem(ctx, s.conn, id)
}

// ListByStatus returns the items matching the done flag ordered by ascending
// id (insertion order).
func (s *Store) ListByStatus(ctx context.Context, done bool) ([]Item, error) {
	return listByStatus(ctx, s.conn, done)
}

// ClearCompleted removes every completed item and reports how many went.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return clearCompleted(ctx, s.conn)
}

// CountByStatus counts the items matching the done flag.
func (s *Store) CountByStatus(ctx context.Context, done bool) (int, error) {
	return countByStatus(ctx, s.conn, done)
}

// StoreStats summarizes the store for status reporting.
type StoreStats struct {
	Path          string `json:"path"`
	Mode          Mode   `json:"mode"`
	SchemaVersion int    `json:"schema_version"`
	Pending       int    `json:"pending"`
	Completed     int    `json:"completed"`
	SizeBytes     int64  `json:"size_bytes"`
}

// Stats collects current store statistics.
func (s *Store) Stats(ctx context.Context) (StoreStats, error) {
	stats := StoreStats{
		Path: s.path,
		Mode: s.mode,
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read schema version: %w", err)
	}
	stats.SchemaVersion = version

	if stats.Pending, err = s.CountByStatus(ctx, false); err != nil {
		return stats, err
	}
	if stats.Completed, err = s.CountByStatus(ctx, true); err != nil {
		return stats, err
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}

	return stats, nil
}

func addItem(ctx context.Context, q querier, value string) error {
	if value == "" {
		return nil
	}
	return insertItem(ctx, q, value, false)
}

func insertItem(ctx context.Context, q querier, value string, done bool) error {
	query := `INSERT INTO items (done, value) VALUES (?, ?)`
	if _, err := q.ExecContext(ctx, query, boolToInt(done), value); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func markDone(ctx context.Context, q querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `UPDATE items SET done = 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark item %d done: %w", id, err)
	}
	return rowsChanged(result)
}

func deleteItem(ctx context.Context, q querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return rowsChanged(result)
}

func listByStatus(ctx context.Context, q querier, done bool) ([]Item, error) {
	query := `SELECT id, done, value FROM items WHERE done = ? ORDER BY id ASC`
	rows, err := q.QueryContext(ctx, query, boolToInt(done))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func clearCompleted(ctx context.Context, q querier) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM items WHERE done = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear completed items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared items: %w", err)
	}
	return n, nil
}

func countByStatus(ctx context.Context, q querier, done bool) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM items WHERE done = ?`
	if err := q.QueryRowContext(ctx, query, boolToInt(done)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// scanItems reads all rows from a `SELECT id, done, value` result set.
func scanItems(rows *sql.Rows) ([]Item, error) {
	items := []Item{}
	for rows.Next() {
		var it Item
		var done int
		if err := rows.Scan(&it.ID, &done, &it.Value); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Done = done != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func rowsChanged(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
