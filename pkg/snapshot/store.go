// Package snapshot provides durable stores for full-database snapshots.
// The embedded-SQL engine exports its whole database as a binary blob and
// persists it under a configured key; the store contract is opaque and
// full-snapshot, never incremental.
package snapshot

import "errors"

// ErrNotFound is returned by Load when no snapshot exists under the key.
var ErrNotFound = errors.New("snapshot not found")

// Store is the host-provided key-value boundary for durable snapshots.
type Store interface {
	// Save persists data under key, replacing any previous snapshot.
	Save(key string, data []byte) error

	// Load retrieves the snapshot stored under key.
	// Returns ErrNotFound when no snapshot exists.
	Load(key string) ([]byte, error)

	// Delete removes the snapshot under key. Deleting a missing key is
	// not an error.
	Delete(key string) error
}
