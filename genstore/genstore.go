// Package genstore tracks a generation counter per snapshot key.
//
// A mutation elsewhere (booking created, edited, deleted) bumps the
// generation of the snapshot it makes stale. A loader snapshots the
// generation before its live fetch and writes the fetched list back only
// if the generation is unchanged, so a fetch that raced a mutation never
// re-seeds the cache with pre-mutation data.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore when
// snapshots are shared through the redis provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
