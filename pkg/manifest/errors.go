package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparseable marks a prior manifest that exists but cannot be decoded.
	ErrUnparseable = errors.New("manifest is unparseable")

	// ErrWrite marks a failure to persist the manifest.
	ErrWrite = errors.New("manifest write failed")

	// ErrUnsupportedFormat is returned for unknown output shapes.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrLocked is returned when another run holds the manifest lock.
	ErrLocked = errors.New("manifest is locked by another run")

	errNotObject = errors.New("entry is not an object")
)

// Issue describes a part of a prior manifest that was skipped while decoding.
type Issue struct {
	Category Category
	// Index is the position within the category list, or -1 for the list itself.
	Index  int
	Reason string
}

func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("%s: %s", i.Category, i.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", i.Category, i.Index, i.Reason)
}
