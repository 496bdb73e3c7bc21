// Package transfer moves items between a store and flat files.
//
// Two formats are supported: JSONL (one item object per line) and
// YAML (a single document with an items list). Exports read both
// partitions in one transaction so the file is a consistent snapshot;
// imports insert in file order inside one transaction so a failed
// import leaves the store untouched.
//
// Identifiers are not carried across: the store assigns fresh ids on
// import, preserving file order.
package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skiffdb/skiff/internal/store"
)

// Format identifies a transfer file format.
type Format string

const (
	// FormatJSONL is newline-delimited JSON, one item per line.
	FormatJSONL Format = "jsonl"
	// FormatYAML is a single YAML document with an items list.
	FormatYAML Format = "yaml"
)

// DetectFormat guesses the format from the file extension. Unknown
// extensions default to JSONL.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONL
	}
}

// ExportOptions contains configuration for an export.
type ExportOptions struct {
	Path   string // Output file path
	Format Format // Output format; empty means detect from Path
	DryRun bool   // Count without writing
}

// ExportResult contains statistics about an export.
type ExportResult struct {
	ItemsWritten int
	Path         string
}

// ImportOptions contains configuration for an import.
type ImportOptions struct {
	Path   string // Input file path
	Format Format // Input format; empty means detect from Path
	DryRun bool   // Parse and count without writing
}

// ImportResult contains statistics about an import.
type ImportResult struct {
	ItemsImported int
	Skipped       int
}

// Export writes every item to the file described by opts.
func Export(ctx context.Context, st *store.Store, opts ExportOptions) (*ExportResult, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("export path is required")
	}
	format := opts.Format
	if format == "" {
		format = DetectFormat(opts.Path)
	}

	snap, err := st.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	items := mergeByID(snap.Pending, snap.Completed)

	result := &ExportResult{
		ItemsWritten: len(items),
		Path:         opts.Path,
	}
	if opts.DryRun {
		return result, nil
	}

	var data []byte
	switch format {
	case FormatJSONL:
		data, err = marshalJSONL(items)
	case FormatYAML:
		data, err = marshalYAML(items)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	if err := writeFileAtomic(opts.Path, data); err != nil {
		return nil, err
	}
	return result, nil
}

// Import reads items from the file described by opts and inserts them
// in file order. Items with empty values are skipped. All inserts
// happen in one transaction.
func Import(ctx context.Context, st *store.Store, opts ImportOptions) (*ImportResult, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("import path is required")
	}
	format := opts.Format
	if format == "" {
		format = DetectFormat(opts.Path)
	}

	// #nosec G304 - controlled path from CLI
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var items []store.Item
	switch format {
	case FormatJSONL:
		items, err = unmarshalJSONL(data)
	case FormatYAML:
		items, err = unmarshalYAML(data)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, item := range items {
		if item.Value == "" {
			result.Skipped++
			continue
		}
		result.ItemsImported++
	}
	if opts.DryRun {
		return result, nil
	}

	err = st.RunTransaction(ctx, func(tx *store.Tx) error {
		for _, item := range items {
			if item.Value == "" {
				continue
			}
			if err := tx.Insert(ctx, item.Value, item.Done); err != nil {
				return fmt.Errorf("failed to insert %q: %w", item.Value, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mergeByID interleaves two id-ordered slices back into global
// insertion order.
func mergeByID(a, b []store.Item) []store.Item {
	merged := make([]store.Item, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].ID < b[j].ID {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

// writeFileAtomic writes data via a temp file and rename so readers
// never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
