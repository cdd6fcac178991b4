package store

import (
	"context"
)

// ExportAll returns the latest entry of every key, optionally filtered by prefix.
func ExportAll(ctx context.Context, s Store, prefix string) ([]Entry, error) {
	return s.List(ctx, prefix)
}

// Import writes exported entries back. Each import is a new version of its key.
func Import(ctx context.Context, s Store, entries []Entry) (int, error) {
	imported := 0
	for _, e := range entries {
		if _, err := s.Put(ctx, e.Key, e.Value); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
