// Package kv provides the string-keyed persistent storage that every
// repository sits on, and typed JSON collections layered over it.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnchanged may be returned by an UpdateFunc to abort the write.
// Update then returns nil and the stored value is left untouched.
var ErrUnchanged = errors.New("kv: value unchanged")

// UpdateFunc receives the current value of a key (ok is false when the key
// is missing) and returns the value to store. It may be called more than
// once when a backend retries after a conflicting write.
type UpdateFunc func(current []byte, ok bool) ([]byte, error)

// Store is a string-keyed byte store.
type Store interface {
	// Get returns the value for key. ok is false when the key is missing.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every key in the store.
	Keys(ctx context.Context) ([]string, error)

	// Update performs a read-modify-write of key that no concurrent
	// Update of the same key can interleave with.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// DecodeError reports a stored value that is not valid JSON for its type.
// Collections recover from it by substituting an empty value.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
