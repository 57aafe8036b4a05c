// Package storage provides the key-value persistence used by the local
// repositories. Values are serialized to JSON text before they are written.
package storage

import (
	"context"
	"fmt"
)

// KeyValueStore persists serialized values under string keys.
type KeyValueStore interface {
	// Set serializes value and stores it under key, replacing any prior value.
	Set(ctx context.Context, key string, value any) error
	// Get decodes the value stored under key into dst. It reports false when
	// the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// StorageError reports a serialization or I/O failure of a store operation.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}
