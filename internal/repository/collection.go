package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-list/internal/storage"
)

// Record is implemented by every entity a Collection stores.
type Record interface {
	Key() string
	LastUpdated() time.Time
}

// Collection stores a whole slice of entities as one serialized value under a
// single key. Every mutation reads the full collection, changes it in memory
// and writes it back.
//
// Mutations through one Collection are serialized. Two Collections pointing at
// the same key are not coordinated and can overwrite each other's writes.
type Collection[T Record, C any, U any] struct {
	store  storage.KeyValueStore
	key    string
	entity string

	build func(id string, data C, now time.Time) T
	merge func(entity T, upd U, now time.Time) T

	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

func NewCollection[T Record, C any, U any](
	store storage.KeyValueStore,
	key, entity string,
	build func(id string, data C, now time.Time) T,
	merge func(entity T, upd U, now time.Time) T,
) *Collection[T, C, U] {
	return &Collection[T, C, U]{
		store:  store,
		key:    key,
		entity: entity,
		build:  build,
		merge:  merge,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// All returns every stored entity in insertion order.
func (c *Collection[T, C, U]) All(ctx context.Context) ([]T, error) {
	var items []T
	ok, err := c.store.Get(ctx, c.key, &items)
	if err != nil {
		return nil, fmt.Errorf("load %s collection: %w", c.entity, err)
	}
	if !ok || items == nil {
		return []T{}, nil
	}
	return items, nil
}

// Get returns the entity with the given id, or nil when it does not exist.
func (c *Collection[T, C, U]) Get(ctx context.Context, id string) (*T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Key() == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Filter returns the entities accepted by keep, preserving their order.
func (c *Collection[T, C, U]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *Collection[T, C, U]) Create(ctx context.Context, data C) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return "", err
	}
	id := c.newID()
	items = append(items, c.build(id, data, c.now()))
	if err := c.store.Set(ctx, c.key, items); err != nil {
		return "", fmt.Errorf("create %s: %w", c.entity, err)
	}
	return id, nil
}

func (c *Collection[T, C, U]) Update(ctx context.Context, id string, upd U) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return err
	}
	idx := -1
	for i := range items {
		if items[i].Key() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &NotFoundError{Entity: c.entity, ID: id}
	}

	items[idx] = c.merge(items[idx], upd, nextStamp(c.now(), items[idx].LastUpdated()))
	if err := c.store.Set(ctx, c.key, items); err != nil {
		return fmt.Errorf("update %s: %w", c.entity, err)
	}
	return nil
}

func (c *Collection[T, C, U]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.All(ctx)
	if err != nil {
		return err
	}
	kept := make([]T, 0, len(items))
	for _, item := range items {
		if item.Key() != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return &NotFoundError{Entity: c.entity, ID: id}
	}
	if err := c.store.Set(ctx, c.key, kept); err != nil {
		return fmt.Errorf("delete %s: %w", c.entity, err)
	}
	return nil
}

// nextStamp returns now, or the smallest instant after prev when the clock
// has not advanced past it.
func nextStamp(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}
