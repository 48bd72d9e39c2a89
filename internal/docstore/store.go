// Package docstore persists named collections of JSON documents. Each
// collection is read and written as a whole, and every access holds a
// process-wide lock for that collection.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"annies-bakery/internal/model"

	"github.com/rs/zerolog"
)

// Document is implemented by every record stored in a collection.
type Document interface {
	DocumentID() string
}

// Store binds a backend to its corruption policy.
type Store struct {
	backend   Backend
	strict    bool
	onCorrupt func(collection string)
	logger    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithStrict makes reads of a malformed collection fail instead of returning empty.
func WithStrict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithCorruptionHook registers a callback invoked whenever a malformed collection is read.
func WithCorruptionHook(fn func(collection string)) Option {
	return func(s *Store) { s.onCorrupt = fn }
}

// New creates a store over backend.
func New(backend Backend, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With().Str("component", "docstore").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Collection is a typed view over one named document.
type Collection[T Document] struct {
	store *Store
	name  string
}

// NewCollection returns the collection called name in s.
func NewCollection[T Document](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// MutateFunc receives the current records and returns the records to persist
// and whether anything changed. Returning an error aborts without writing.
type MutateFunc[T Document] func(items []T) ([]T, bool, error)

// GetAll returns every record. A missing collection is empty.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	unlock := c.lock()
	defer unlock()

	items, err := c.read(ctx)
	if err != nil {
		var corrupt *corruptError
		if errors.As(err, &corrupt) && !c.store.strict {
			return []T{}, nil
		}
		return nil, err
	}
	return items, nil
}

// GetByID returns the first record with id, or nil when there is none.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].DocumentID() == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Append adds item to the end of the collection.
func (c *Collection[T]) Append(ctx context.Context, item T) error {
	return c.Mutate(ctx, func(items []T) ([]T, bool, error) {
		return append(items, item), true, nil
	})
}

// Update replaces the first record with id. It reports false when id is absent.
func (c *Collection[T]) Update(ctx context.Context, id string, item T) (bool, error) {
	found := false
	err := c.Mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if items[i].DocumentID() == id {
				items[i] = item
				found = true
				return items, true, nil
			}
		}
		return items, false, nil
	})
	return found, err
}

// Delete removes every record with id. It reports false when id is absent.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := c.Mutate(ctx, func(items []T) ([]T, bool, error) {
		kept := items[:0]
		for _, item := range items {
			if item.DocumentID() == id {
				found = true
				continue
			}
			kept = append(kept, item)
		}
		return kept, found, nil
	})
	return found, err
}

// ReplaceAll overwrites the collection with items.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	unlock := c.lock()
	defer unlock()

	return c.write(ctx, items)
}

// Mutate runs one read-modify-write cycle under the collection lock. A
// malformed collection is never overwritten: the cycle fails with
// model.ErrStorageCorruption regardless of the strict setting.
func (c *Collection[T]) Mutate(ctx context.Context, fn MutateFunc[T]) error {
	unlock := c.lock()
	defer unlock()

	items, err := c.read(ctx)
	if err != nil {
		return err
	}

	updated, changed, err := fn(items)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return c.write(ctx, updated)
}

func (c *Collection[T]) lock() func() {
	l := lockFor(c.store.backend.Key(c.name))
	l.Lock()
	return l.Unlock
}

// corruptError marks a collection whose document could not be decoded.
type corruptError struct {
	err error
}

func (e *corruptError) Error() string { return e.err.Error() }
func (e *corruptError) Unwrap() error { return e.err }

func (c *Collection[T]) read(ctx context.Context) ([]T, error) {
	data, err := c.store.backend.Read(ctx, c.name)
	if errors.Is(err, ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.store.logger.Error().
			Err(err).
			Str("collection", c.name).
			Msg("collection document is malformed")
		if c.store.onCorrupt != nil {
			c.store.onCorrupt(c.name)
		}
		return nil, &corruptError{
			err: model.ErrStorageCorruption.WithCause(fmt.Sprintf("collection %s is corrupt", c.name), err),
		}
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) write(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := Encode(items)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", c.name, err)
	}

	if err := c.store.backend.Write(ctx, c.name, data); err != nil {
		c.store.logger.Error().
			Err(err).
			Str("collection", c.name).
			Msg("failed to write collection")
		return err
	}

	c.store.logger.Debug().
		Str("collection", c.name).
		Int("records", len(items)).
		Msg("collection written")

	return nil
}

// Encode renders v the way collections are persisted: two-space indentation,
// no HTML escaping, non-ASCII kept verbatim.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
