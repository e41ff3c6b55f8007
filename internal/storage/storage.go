// Package storage implements the dual-backend key/value layer behind the
// record lifecycle: a durable external store (Redis-compatible, configured
// via environment) and an in-process map that serves as the per-operation
// fallback. The Fallback decorator composes the two and logs every
// degradation so operators can observe it.
package storage

import (
	"context"
	"errors"
)

// Storage method names reported to callers (e.g. the storageMethod field of
// form creation responses and the /health report).
const (
	MethodKV     = "kv"
	MethodMemory = "memory"
)

// ErrNotFound is returned by Get when a key does not exist in a backend.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a minimal key/value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all keys with the given prefix. Enumeration order is
	// unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Prober is implemented by backends that can verify real reachability, not
// merely configuration. Probe performs a round-trip write/read/delete of a
// throwaway key.
type Prober interface {
	Probe(ctx context.Context) error
}
