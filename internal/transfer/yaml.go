package transfer

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/skiffdb/skiff/internal/store"
)

// yamlDocument is the on-disk YAML shape: a single document holding
// the full item list.
type yamlDocument struct {
	Items []store.Item `yaml:"items"`
}

// marshalYAML renders items as one YAML document.
func marshalYAML(items []store.Item) ([]byte, error) {
	data, err := yaml.Marshal(yamlDocument{Items: items})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}
	return data, nil
}

// unmarshalYAML parses a YAML document into items.
func unmarshalYAML(data []byte) ([]store.Item, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []store.Item{}
	}
	return doc.Items, nil
}
