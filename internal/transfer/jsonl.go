package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skiffdb/skiff/internal/store"
)

// marshalJSONL renders items as newline-delimited JSON.
func marshalJSONL(items []store.Item) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			return nil, fmt.Errorf("failed to marshal item %d: %w", item.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// unmarshalJSONL parses newline-delimited JSON into items.
func unmarshalJSONL(data []byte) ([]store.Item, error) {
	items := []store.Item{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	lineNum := 0

	for {
		var item store.Item
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid JSON at line %d: %w", lineNum+1, err)
		}
		lineNum++
		items = append(items, item)
	}

	return items, nil
}
