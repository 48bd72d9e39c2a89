package docstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by a Backend when the named document has never been written.
var ErrNotExist = errors.New("document does not exist")

// Backend persists whole collection documents by name.
type Backend interface {
	// Read returns the raw document, or ErrNotExist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the document atomically.
	Write(ctx context.Context, name string, data []byte) error

	// Key identifies the document process-wide and selects its lock.
	Key(name string) string
}
