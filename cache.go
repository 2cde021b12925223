package parkcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/parkcache/codec"
	gen "github.com/unkn0wn-root/parkcache/genstore"
	"github.com/unkn0wn-root/parkcache/internal/util"
	"github.com/unkn0wn-root/parkcache/internal/wire"
	pr "github.com/unkn0wn-root/parkcache/provider"
)

const (
	defaultGenRetention = 30 * 24 * time.Hour
	defaultSweep        = time.Hour
)

type cache[V any] struct {
	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	schema         uint32
	sweepInterval  time.Duration
	genRetention   time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("parkcache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("parkcache: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("parkcache: namespace is required")
	}

	c := &cache[V]{
		ns:         opts.Namespace,
		provider:   opts.Provider,
		codec:      opts.Codec,
		enabled:    !opts.Disabled,
		defaultTTL: opts.DefaultTTL,
		schema:     opts.SchemaVersion,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.sweepInterval = coalesce[time.Duration](opts.CleanupInterval, defaultSweep)
	c.genRetention = coalesce[time.Duration](opts.GenRetention, defaultGenRetention)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = gen.NewLocalGenStore(c.sweepInterval, c.genRetention)
	}

	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if c.gen != nil {
		_ = c.gen.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if !c.enabled {
		return zero, false
	}
	k := c.storageKey(key)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		c.log.Warn("cache read failed", Fields{"key": key, "err": err})
		c.hooks.CacheReadFailed(k, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	f, err := wire.DecodeSnapshotSchema(raw, c.schema)
	if errors.Is(err, wire.ErrSchemaMismatch) {
		c.selfHeal(ctx, k, "schema_mismatch")
		return zero, false
	}
	if err != nil {
		c.selfHeal(ctx, k, "corrupt")
		return zero, false
	}

	cur, ok := c.snapshotGen(ctx, k)
	if !ok {
		return zero, false
	}
	// Frames above the current generation survive a restart of an
	// in-process GenStore; only frames below it predate an invalidation.
	if f.Gen < cur {
		c.selfHeal(ctx, k, "gen_mismatch")
		return zero, false
	}

	v, err := c.codec.Decode(f.Payload)
	if err != nil {
		c.log.Warn("cached value decode failed", Fields{"key": key, "err": err})
		c.selfHeal(ctx, k, "value_decode")
		return zero, false
	}
	return v, true
}

func (c *cache[V]) Set(ctx context.Context, key string, value V) {
	if !c.enabled {
		return
	}
	k := c.storageKey(key)
	cur, ok := c.snapshotGen(ctx, k)
	if !ok {
		return
	}
	c.write(ctx, key, k, value, cur)
}

func (c *cache[V]) SetWithGen(ctx context.Context, key string, value V, observedGen uint64) bool {
	if !c.enabled {
		return false
	}
	k := c.storageKey(key)
	cur, ok := c.snapshotGen(ctx, k)
	if !ok || cur != observedGen {
		// generation moved; skip stale write
		c.log.Debug("SetWithGen skipped (gen mismatch)", Fields{"key": key, "obs": observedGen, "cur": cur})
		return false
	}
	c.write(ctx, key, k, value, observedGen)
	return true
}

func (c *cache[V]) write(ctx context.Context, key, storageKey string, value V, g uint64) {
	defer func() {
		if r := recover(); r != nil {
			c.writeFailed(key, storageKey, fmt.Errorf("parkcache: panic during write: %v", r))
		}
	}()

	payload, err := c.codec.Encode(value)
	if err != nil {
		c.writeFailed(key, storageKey, fmt.Errorf("encode: %w", err))
		return
	}
	raw := wire.EncodeSnapshot(c.schema, g, payload)
	ok, err := c.provider.Set(ctx, storageKey, raw, c.computeSetCost(storageKey, raw), c.defaultTTL)
	if err != nil {
		c.writeFailed(key, storageKey, err)
		return
	}
	if !ok {
		c.log.Debug("cache write rejected by provider (pressure)", Fields{"key": key})
		c.hooks.ProviderSetRejected(storageKey)
	}
}

func (c *cache[V]) writeFailed(key, storageKey string, err error) {
	c.log.Warn("cache write failed", Fields{"key": key, "err": err})
	c.hooks.CacheWriteFailed(storageKey, err)
}

func (c *cache[V]) Invalidate(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	k := c.storageKey(key)
	newGen, bumpErr := c.gen.Bump(ctx, k)
	if bumpErr != nil {
		c.log.Error("gen bump error", Fields{"key": key, "err": bumpErr})
		c.hooks.GenBumpError(k, bumpErr)
	}
	delErr := c.provider.Del(ctx, k)
	if bumpErr != nil && delErr != nil {
		c.hooks.InvalidateOutage(key, bumpErr, delErr)
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	if delErr != nil {
		// the bumped generation rejects the entry on its next read
		c.log.Warn("invalidate delete failed", Fields{"key": key, "err": delErr})
	}
	c.log.Debug("invalidated key (bumped gen + cleared snapshot)", Fields{"key": key, "newGen": newGen})
	return nil
}

func (c *cache[V]) SnapshotGen(key string) uint64 {
	g, _ := c.snapshotGen(context.Background(), c.storageKey(key))
	return g
}

// snapshotGen reports ok=false when the GenStore failed. Callers treat that
// as a miss on read and skip writes.
func (c *cache[V]) snapshotGen(ctx context.Context, storageKey string) (uint64, bool) {
	g, err := c.gen.Snapshot(ctx, storageKey)
	if err != nil {
		c.log.Warn("gen snapshot error", Fields{"key": storageKey, "err": err})
		c.hooks.GenSnapshotError(storageKey, err)
		return 0, false
	}
	return g, true
}

func (c *cache[V]) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = c.provider.Del(ctx, storageKey)
	c.log.Debug("self-healed cache entry", Fields{"key": storageKey, "reason": reason})
	c.hooks.SelfHeal(storageKey, reason)
}

func (c *cache[V]) storageKey(userKey string) string {
	return util.StorageKey(c.ns, userKey)
}
