package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// Load reads a record document from path. YAML files are converted to JSON
// semantics, so the result always holds map[string]any / []any / string /
// float64 / bool / nil values regardless of the source format.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes record bytes. ext selects the format (".yaml"/".yml" for
// YAML, anything else is JSON).
func Parse(data []byte, ext string) (map[string]any, error) {
	var doc map[string]any

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML record: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON record: %w", err)
		}
	}

	if doc == nil {
		return nil, fmt.Errorf("record is empty")
	}
	return doc, nil
}

// Save writes a record as indented JSON with a trailing newline, the shape
// the document store and downstream tooling expect.
func Save(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
