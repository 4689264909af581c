package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/assetgen/internal/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileType returns the viper config type of path: toml for .toml files,
// yaml otherwise.
func fileType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// CheckFile validates a config file against the embedded config schema.
// An empty file is valid.
func CheckFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is operator supplied
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	if fileType(path) == "toml" {
		return CheckTOML(data, path)
	}
	return CheckBytes(data, path)
}

// CheckBytes validates YAML config content. name is used in messages.
func CheckBytes(data []byte, name string) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalid, name, err)
	}
	return check(doc, name)
}

// CheckTOML validates TOML config content.
func CheckTOML(data []byte, name string) error {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalid, name, err)
	}
	if len(doc) == 0 {
		return nil
	}
	return check(doc, name)
}

func check(doc interface{}, name string) error {
	if doc == nil {
		return nil
	}

	res, err := schema.Validate(doc, schema.ConfigSchema)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, name, res.Summary())
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
