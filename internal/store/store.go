// Package store provides the key-value persistence interface used for NPC
// memory tiers, with SQLite, MongoDB and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted.
var ErrNotFound = errors.New("store: key not found")

// Entry is the latest value stored under a key.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a string key-value store with whole-value writes.
// Every Put bumps the key's Version, so concurrent writers can be ordered
// after the fact: the highest version is the write that won.
type Store interface {
	// Get returns the latest entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put replaces the value stored under key and returns the new entry.
	Put(ctx context.Context, key, value string) (*Entry, error)

	// List returns the latest entries whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the store.
	Close() error
}
