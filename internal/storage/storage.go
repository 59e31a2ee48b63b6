// Package storage provides the durable single-slot persistence backends for
// the cart. A slot holds one JSON-serializable value under one key.
package storage

import (
	"context"
	"errors"
)

// Slot is the persistence collaborator injected into the cart store.
// Implementations must be safe for concurrent use.
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, value []byte) error
	Remove(ctx context.Context) error
}

// Watcher is implemented by slots that can report writes made by another
// process. The callback receives the new raw value, or nil when the slot
// was removed. Slots without this capability degrade to single-process
// consistency.
type Watcher interface {
	Watch(ctx context.Context, onChange func(value []byte)) error
}

// ErrNotFound is returned by Get when the slot holds no value.
var ErrNotFound = errors.New("storage: slot is empty")
