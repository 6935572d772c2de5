package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Collection is a JSON array of T stored under one key. Every mutation
// rewrites the whole array.
type Collection[T any] struct {
	store Store
	key   string
}

// NewCollection binds a collection to key in store.
func NewCollection[T any](store Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string { return c.key }

// Load returns every element. A missing key yields an empty collection, and
// so does a stored value that cannot be decoded; the latter is logged.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	return c.decode(raw), nil
}

// Save replaces the stored collection with items.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	data, err := encode(items)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.key, err)
	}
	return c.store.Set(ctx, c.key, data)
}

// Update loads the collection, passes it to fn and stores what fn returns.
// Returning ErrUnchanged from fn skips the write.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	return c.store.Update(ctx, c.key, func(current []byte, ok bool) ([]byte, error) {
		items := []T{}
		if ok {
			items = c.decode(current)
		}

		next, err := fn(items)
		if err != nil {
			return nil, err
		}

		data, err := encode(next)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", c.key, err)
		}
		return data, nil
	})
}

// Clear removes the collection from the store.
func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.store.Remove(ctx, c.key)
}

func (c *Collection[T]) decode(raw []byte) []T {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		derr := &DecodeError{Key: c.key, Err: err}
		slog.Warn("discarding unreadable collection", "key", c.key, "error", derr)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// Value is a single JSON object stored under one key.
type Value[T any] struct {
	store Store
	key   string
}

// NewValue binds a value to key in store.
func NewValue[T any](store Store, key string) *Value[T] {
	return &Value[T]{store: store, key: key}
}

// Load returns the stored value. ok is false when the key is missing or
// holds something that cannot be decoded.
func (v *Value[T]) Load(ctx context.Context) (T, bool, error) {
	var out T
	raw, ok, err := v.store.Get(ctx, v.key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		slog.Warn("discarding unreadable value", "key", v.key, "error", &DecodeError{Key: v.key, Err: err})
		return zero, false, nil
	}
	return out, true, nil
}

// Save stores val.
func (v *Value[T]) Save(ctx context.Context, val T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", v.key, err)
	}
	return v.store.Set(ctx, v.key, data)
}

// Clear removes the value.
func (v *Value[T]) Clear(ctx context.Context) error {
	return v.store.Remove(ctx, v.key)
}
