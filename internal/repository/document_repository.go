package repository

import (
	"context"
	"fmt"

	"annies-bakery/internal/docstore"

	"github.com/rs/zerolog"
)

// documentRepository implements Repository over a docstore collection.
type documentRepository[T docstore.Document] struct {
	coll   *docstore.Collection[T]
	logger zerolog.Logger
}

func newDocumentRepository[T docstore.Document](store *docstore.Store, name string, logger zerolog.Logger) *documentRepository[T] {
	return &documentRepository[T]{
		coll:   docstore.NewCollection[T](store, name),
		logger: logger.With().Str("repository", name).Logger(),
	}
}

func (r *documentRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	items, err := r.coll.GetAll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load collection")
		return nil, fmt.Errorf("failed to load %s: %w", r.coll.Name(), err)
	}
	return items, nil
}

func (r *documentRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	item, err := r.coll.GetByID(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to load record")
		return nil, fmt.Errorf("failed to load %s %s: %w", r.coll.Name(), id, err)
	}
	if item == nil {
		r.logger.Debug().Str("id", id).Msg("record not found")
	}
	return item, nil
}

func (r *documentRepository[T]) Create(ctx context.Context, item *T) error {
	if err := r.coll.Append(ctx, *item); err != nil {
		r.logger.Error().Err(err).Str("id", (*item).DocumentID()).Msg("failed to create record")
		return fmt.Errorf("failed to create %s record: %w", r.coll.Name(), err)
	}

	r.logger.Debug().Str("id", (*item).DocumentID()).Msg("record created")
	return nil
}

func (r *documentRepository[T]) Save(ctx context.Context, item *T) error {
	id := (*item).DocumentID()
	err := r.coll.Mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if items[i].DocumentID() == id {
				items[i] = *item
				return items, true, nil
			}
		}
		return append(items, *item), true, nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to save record")
		return fmt.Errorf("failed to save %s %s: %w", r.coll.Name(), id, err)
	}
	return nil
}

func (r *documentRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.coll.Delete(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to delete record")
		return false, fmt.Errorf("failed to delete %s %s: %w", r.coll.Name(), id, err)
	}
	return ok, nil
}

func (r *documentRepository[T]) Modify(ctx context.Context, id string, fn ModifyFunc[T]) (*T, error) {
	var result *T
	err := r.coll.Mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if items[i].DocumentID() != id {
				continue
			}
			changed := fn(&items[i])
			stored := items[i]
			result = &stored
			return items, changed, nil
		}
		return items, false, nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("failed to modify record")
		return nil, fmt.Errorf("failed to modify %s %s: %w", r.coll.Name(), id, err)
	}
	return result, nil
}

func (r *documentRepository[T]) ModifyMany(ctx context.Context, ids []string, fn ModifyFunc[T]) (int, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	return r.modify(ctx, func(item *T) bool {
		return wanted[(*item).DocumentID()] && fn(item)
	})
}

func (r *documentRepository[T]) ModifyAll(ctx context.Context, fn ModifyFunc[T]) (int, error) {
	return r.modify(ctx, fn)
}

func (r *documentRepository[T]) modify(ctx context.Context, fn ModifyFunc[T]) (int, error) {
	count := 0
	err := r.coll.Mutate(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if fn(&items[i]) {
				count++
			}
		}
		return items, count > 0, nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to modify collection")
		return 0, fmt.Errorf("failed to modify %s: %w", r.coll.Name(), err)
	}

	if count > 0 {
		r.logger.Debug().Int("count", count).Msg("records modified")
	}
	return count, nil
}
