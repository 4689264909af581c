package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/assetgen/pkg/safeio"
)

// Store loads and saves a manifest document in one codec's shape.
type Store struct {
	codec Codec
}

// NewStore returns a store for codec.
func NewStore(codec Codec) *Store {
	return &Store{codec: codec}
}

// Codec returns the store's codec.
func (s *Store) Codec() Codec { return s.codec }

// Load reads the previous manifest. A missing file yields an empty document.
// An undecodable file yields an empty manifest (plus any recoverable manual
// region) together with an error wrapping ErrUnparseable, so callers can
// warn and continue.
func (s *Store) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- manifest path is operator supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(nil), nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	doc, err := s.codec.Decode(data)
	if err != nil {
		fallback := NewDocument(nil)
		if doc != nil {
			fallback.Manual = doc.Manual
		}
		return fallback, fmt.Errorf("%w: %s: %v", ErrUnparseable, path, err)
	}
	if doc.Manifest == nil {
		doc.Manifest = New()
	}
	return doc, nil
}

// Render encodes doc without writing it.
func (s *Store) Render(doc *Document) ([]byte, error) {
	data, err := s.codec.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s manifest: %w", s.codec.Format(), err)
	}
	return data, nil
}

// Save replaces path with the encoded document in a single rename.
func (s *Store) Save(path string, doc *Document) error {
	data, err := s.Render(doc)
	if err != nil {
		return err
	}
	return s.SaveBytes(path, data)
}

// SaveBytes writes already rendered content, creating parent directories.
func (s *Store) SaveBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := safeio.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}
