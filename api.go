package parkcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/parkcache/codec"
	gen "github.com/unkn0wn-root/parkcache/genstore"
	pr "github.com/unkn0wn-root/parkcache/provider"
	"github.com/unkn0wn-root/parkcache/record"
)

type SetCostFunc func(key string, raw []byte) int64

// Cache is the typed accessor over a Provider. It never fails the caller:
// read problems are misses, write problems are logged and reported via Hooks.
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Get returns the value stored under key (getFromCache).
	Get(ctx context.Context, key string) (v V, ok bool)
	// Set stores value under key, overwriting any entry (saveToCache).
	Set(ctx context.Context, key string, value V)
	// SetWithGen stores value only if key's generation still equals
	// observedGen. Reports whether the write was attempted.
	SetWithGen(ctx context.Context, key string, value V, observedGen uint64) bool
	// Invalidate bumps key's generation and deletes its entry.
	Invalidate(ctx context.Context, key string) error

	SnapshotGen(key string) uint64
}

// Snapshots is the cache the loader reads and writes collection lists through.
type Snapshots = Cache[[]record.Record]

// Options tune the behavior of the cache.
// Namespace, Provider and Codec are required; others have sensible defaults.
type Options[V any] struct {
	// Required
	Namespace string // logical namespace to avoid collisions. e.g. "parking"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	DefaultTTL      time.Duration // 0 => entries never expire
	SchemaVersion   uint32        // bump when the stored record shape changes
	CleanupInterval time.Duration // 0 => 1h
	GenRetention    time.Duration // 0 => 30d
	Disabled        bool          // default false (enabled)
	ComputeSetCost  SetCostFunc   // default len(raw)
	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}

// NewSnapshots is New for collection snapshots.
func NewSnapshots(opts Options[[]record.Record]) (Snapshots, error) {
	return newCache[[]record.Record](opts)
}
