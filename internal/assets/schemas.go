package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// GetSchema returns the embedded schema bytes by relative path (e.g., "manifest/manifest-v1.0.0.yaml").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := fs.ReadFile(GetSchemasFS(), relPath)
	return data, err == nil
}

// SchemaJSON returns a registered schema converted from its YAML source to JSON.
func SchemaJSON(name string) ([]byte, error) {
	info, ok := Lookup("schema", name)
	if !ok {
		return nil, fmt.Errorf("schema %s not registered", name)
	}
	raw, ok := GetSchema(info.Path)
	if !ok {
		return nil, fmt.Errorf("schema %s missing at %s", name, info.Path)
	}
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert schema %s: %w", name, err)
	}
	return out, nil
}
