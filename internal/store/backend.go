// Package store persists the single save slot of a game and recovers from
// storage quota errors by trimming the conversation history.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a Backend when a key holds no record.
	ErrNotFound = errors.New("record not found")

	// ErrQuotaExceeded is returned by a Backend when a write does not fit in
	// the space available to it.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Backend is a durable key-value store. A failed Put must leave the previous
// value of the key intact.
type Backend interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Opener creates the Backend on first use.
type Opener func() (Backend, error)
