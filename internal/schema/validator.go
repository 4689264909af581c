package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/assetgen/internal/assets"
	"github.com/xeipuuv/gojsonschema"
)

// Names of the embedded schemas.
const (
	ManifestSchema = "manifest-v1.0.0"
	ConfigSchema   = "assetgen-config-v1.0.0"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // e.g. "images.0.path"
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Summary joins the errors into one line.
func (r *Result) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

var (
	registryMu sync.Mutex
	registry   = make(map[string]*gojsonschema.Schema)
)

// compiled returns the named schema, compiling it on first use.
func compiled(name string) (*gojsonschema.Schema, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if s, ok := registry[name]; ok {
		return s, nil
	}
	raw, err := assets.SchemaJSON(name)
	if err != nil {
		return nil, fmt.Errorf("schema %s not found in registry: %w", name, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	registry[name] = s
	return s, nil
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	return validate(gojsonschema.NewGoLoader(data), schemaName)
}

// ValidateJSON validates a JSON document against the named schema.
func ValidateJSON(data []byte, schemaName string) (*Result, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("document is not valid JSON")
	}
	return validate(gojsonschema.NewBytesLoader(data), schemaName)
}

func validate(doc gojsonschema.JSONLoader, schemaName string) (*Result, error) {
	schema, err := compiled(schemaName)
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		for _, verr := range result.Errors() {
			field := verr.Field()
			if field == "" || field == "(root)" {
				field = "root"
			}
			res.Errors = append(res.Errors, ValidationError{
				Path:    field,
				Message: verr.Description(),
			})
		}
	}

	return res, nil
}
