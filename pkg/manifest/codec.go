package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an on-disk manifest shape.
type Format string

const (
	// FormatJSON is a plain document holding the four category lists.
	FormatJSON Format = "json"
	// FormatModule is a generated JS module exporting each list as a constant,
	// followed by a hand-maintained region.
	FormatModule Format = "module"
	// FormatYAML holds the four category lists as YAML.
	FormatYAML Format = "yaml"
)

// Document is what a codec reads and writes. Manual is the verbatim region
// after the module marker line; other shapes leave it empty.
type Document struct {
	Manifest *Manifest
	Manual   []byte
	Issues   []Issue
}

// NewDocument wraps m in a Document.
func NewDocument(m *Manifest) *Document {
	if m == nil {
		m = New()
	}
	return &Document{Manifest: m}
}

// Codec converts between bytes and a Document.
type Codec interface {
	Format() Format
	Decode(data []byte) (*Document, error)
	Encode(doc *Document) ([]byte, error)
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatModule, "js":
		return FormatModule, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// DetectFormat picks a format from the output file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".js", ".mjs", ".cjs", ".ts":
		return FormatModule, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: cannot infer format from %q", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ResolveFormat returns the explicit format when set, otherwise detects it.
func ResolveFormat(explicit, path string) (Format, error) {
	if strings.TrimSpace(explicit) != "" {
		return ParseFormat(explicit)
	}
	return DetectFormat(path)
}

// CodecFor returns the codec of a format.
func CodecFor(f Format) (Codec, error) {
	switch f {
	case FormatJSON:
		return JSONCodec{}, nil
	case FormatModule:
		return NewModuleCodec(), nil
	case FormatYAML:
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}
