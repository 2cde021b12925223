package parkcache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	c "github.com/unkn0wn-root/parkcache/codec"
	gen "github.com/unkn0wn-root/parkcache/genstore"
	"github.com/unkn0wn-root/parkcache/internal/wire"
	pr "github.com/unkn0wn-root/parkcache/provider"
	"github.com/unkn0wn-root/parkcache/record"
)

type memProvider struct {
	mu     sync.Mutex
	m      map[string][]byte
	getErr error
	setErr error
	delErr error
	reject bool
	sets   int
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets++
	if p.setErr != nil {
		return false, p.setErr
	}
	if p.reject {
		return false, nil
	}
	p.m[key] = append([]byte(nil), value...)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delErr != nil {
		return p.delErr
	}
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

func (p *memProvider) put(key string, v []byte) {
	p.mu.Lock()
	p.m[key] = v
	p.mu.Unlock()
}

type panicProvider struct{ *memProvider }

func (panicProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	panic("disk on fire")
}

type failingGenStore struct {
	gen.GenStore
	snapErr error
	bumpErr error
}

func (f failingGenStore) Snapshot(ctx context.Context, k string) (uint64, error) {
	if f.snapErr != nil {
		return 0, f.snapErr
	}
	return f.GenStore.Snapshot(ctx, k)
}

func (f failingGenStore) Bump(ctx context.Context, k string) (uint64, error) {
	if f.bumpErr != nil {
		return 0, f.bumpErr
	}
	return f.GenStore.Bump(ctx, k)
}

type recHooks struct {
	NopHooks
	mu       sync.Mutex
	heals    []string
	writes   int
	reads    int
	rejected int
	outages  int
	stale    []string
	failed   int
}

func (h *recHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, reason)
	h.mu.Unlock()
}
func (h *recHooks) CacheWriteFailed(string, error)        { h.mu.Lock(); h.writes++; h.mu.Unlock() }
func (h *recHooks) CacheReadFailed(string, error)         { h.mu.Lock(); h.reads++; h.mu.Unlock() }
func (h *recHooks) ProviderSetRejected(string)            { h.mu.Lock(); h.rejected++; h.mu.Unlock() }
func (h *recHooks) InvalidateOutage(string, error, error) { h.mu.Lock(); h.outages++; h.mu.Unlock() }
func (h *recHooks) LiveFetchFailed(string, error)         { h.mu.Lock(); h.failed++; h.mu.Unlock() }

func (h *recHooks) StaleDiscarded(_, source string) {
	h.mu.Lock()
	h.stale = append(h.stale, source)
	h.mu.Unlock()
}

func (h *recHooks) discarded(source string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.stale {
		if s == source {
			return true
		}
	}
	return false
}

func (h *recHooks) writeFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}

func (h *recHooks) lastHeal() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.heals) == 0 {
		return ""
	}
	return h.heals[len(h.heals)-1]
}

func jsonRecords() c.Codec[[]record.Record] { return c.JSON[[]record.Record]{} }

func newTestSnapshots(t *testing.T, mp pr.Provider, optsOpt func(*Options[[]record.Record])) Snapshots {
	t.Helper()
	opts := Options[[]record.Record]{
		Namespace: "parking",
		Provider:  mp,
		Codec:     jsonRecords(),
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := NewSnapshots(opts)
	if err != nil {
		t.Fatalf("NewSnapshots: %v", err)
	}
	return cc
}

func mustImpl[V any](t *testing.T, c Cache[V]) *cache[V] {
	t.Helper()
	impl, ok := c.(*cache[V])
	if !ok {
		t.Fatalf("unexpected concrete type for Cache")
	}
	return impl
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New[int](Options[int]{Namespace: "x", Codec: c.JSON[int]{}}); err == nil {
		t.Fatalf("expected provider error")
	}
	if _, err := New[int](Options[int]{Namespace: "x", Provider: newMemProvider()}); err == nil {
		t.Fatalf("expected codec error")
	}
	if _, err := New[int](Options[int]{Provider: newMemProvider(), Codec: c.JSON[int]{}}); err == nil {
		t.Fatalf("expected namespace error")
	}
}

// TestRoundTrip: a Get after a Set returns a deep-equal value.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	cases := map[string][]record.Record{
		"empty": {},
		"zones": {{"id": "A", "name": "Zone A", "availableSpots": float64(5)}},
		"unicode": {
			{"id": "b1", "vehicle": "Perodua Myvi ✓", "note": "日本語 · ümlaut"},
			{"id": "b2", "nested": map[string]any{"ok": true, "list": []any{"x", float64(1)}}},
		},
	}
	codecs := map[string]c.Codec[[]record.Record]{
		"json":     c.JSON[[]record.Record]{},
		"protobuf": c.NewRecords(),
	}
	for cname, cd := range codecs {
		for name, v := range cases {
			t.Run(cname+"/"+name, func(t *testing.T) {
				cc := newTestSnapshots(t, newMemProvider(), func(o *Options[[]record.Record]) { o.Codec = cd })
				defer cc.Close(ctx)

				if _, ok := cc.Get(ctx, "k"); ok {
					t.Fatalf("expected miss before Set")
				}
				cc.Set(ctx, "k", v)
				got, ok := cc.Get(ctx, "k")
				if !ok {
					t.Fatalf("expected hit after Set")
				}
				if !reflect.DeepEqual(got, v) {
					t.Fatalf("round trip mismatch:\n got=%#v\nwant=%#v", got, v)
				}
			})
		}
	}
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	cc := newTestSnapshots(t, newMemProvider(), nil)
	cc.Set(ctx, "cachedZones", []record.Record{{"id": "A"}})
	cc.Set(ctx, "cachedZones", []record.Record{{"id": "B"}})
	got, ok := cc.Get(ctx, "cachedZones")
	if !ok || len(got) != 1 || got[0].ID() != "B" {
		t.Fatalf("got=%v ok=%v", got, ok)
	}
}

// TestCASFlow verifies CAS write, invalidation, and stale write skip.
func TestCASFlow(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestSnapshots(t, mp, nil)
	defer cc.Close(ctx)

	k := "cachedBookings"
	v := []record.Record{{"id": "b1", "userId": "u1"}}

	obs := cc.SnapshotGen(k)
	if obs != 0 {
		t.Fatalf("SnapshotGen expected 0, got %d", obs)
	}
	if !cc.SetWithGen(ctx, k, v, obs) {
		t.Fatalf("SetWithGen with current gen should write")
	}
	if got, ok := cc.Get(ctx, k); !ok || got[0].ID() != "b1" {
		t.Fatalf("Get after set: ok=%v got=%v", ok, got)
	}

	if err := cc.Invalidate(ctx, k); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok := cc.Get(ctx, k); ok {
		t.Fatalf("Get after invalidate should miss")
	}

	// a fetch that started before the mutation must not re-seed the cache
	if cc.SetWithGen(ctx, k, v, obs) {
		t.Fatalf("stale SetWithGen should be skipped")
	}
	if _, ok := cc.Get(ctx, k); ok {
		t.Fatalf("stale write should not populate cache")
	}

	obs2 := cc.SnapshotGen(k)
	if obs2 != 1 || !cc.SetWithGen(ctx, k, v, obs2) {
		t.Fatalf("fresh SetWithGen should write (obs2=%d)", obs2)
	}
	if _, ok := cc.Get(ctx, k); !ok {
		t.Fatalf("Get after fresh set should hit")
	}
}

// TestSelfHeal ensures unusable provider bytes are deleted and missed.
func TestSelfHeal(t *testing.T) {
	ctx := context.Background()
	payload, _ := c.JSON[[]record.Record]{}.Encode([]record.Record{{"id": "z1"}})

	tests := []struct {
		name   string
		raw    []byte
		prep   func(*cache[[]record.Record], string)
		reason string
	}{
		{name: "corrupt", raw: []byte("not-wire-format"), reason: "corrupt"},
		{name: "trailing bytes", raw: append(wire.EncodeSnapshot(0, 0, payload), 'x'), reason: "corrupt"},
		{name: "schema", raw: wire.EncodeSnapshot(7, 0, payload), reason: "schema_mismatch"},
		{name: "value", raw: wire.EncodeSnapshot(0, 0, []byte("{not json")), reason: "value_decode"},
		{
			name: "stale gen",
			raw:  wire.EncodeSnapshot(0, 0, payload),
			prep: func(impl *cache[[]record.Record], sk string) {
				_, _ = impl.gen.Bump(context.Background(), sk)
			},
			reason: "gen_mismatch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := newMemProvider()
			h := &recHooks{}
			cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Hooks = h })
			impl := mustImpl(t, cc)
			sk := impl.storageKey("cachedZones")
			mp.put(sk, tt.raw)
			if tt.prep != nil {
				tt.prep(impl, sk)
			}

			if _, ok := cc.Get(ctx, "cachedZones"); ok {
				t.Fatalf("expected miss")
			}
			if mp.has(sk) {
				t.Fatalf("entry was not deleted by self-heal")
			}
			if got := h.lastHeal(); got != tt.reason {
				t.Fatalf("reason=%q want %q", got, tt.reason)
			}
		})
	}
}

// TestNewerFrameSurvivesGenReset: snapshots written before a restart carry
// a generation the fresh in-process store has not reached yet.
func TestNewerFrameSurvivesGenReset(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestSnapshots(t, mp, nil)
	impl := mustImpl(t, cc)

	payload, _ := c.JSON[[]record.Record]{}.Encode([]record.Record{{"id": "A"}})
	mp.put(impl.storageKey("cachedZones"), wire.EncodeSnapshot(0, 3, payload))

	if got, ok := cc.Get(ctx, "cachedZones"); !ok || got[0].ID() != "A" {
		t.Fatalf("expected hit, got=%v ok=%v", got, ok)
	}
}

func TestSchemaVersionIsolatesEntries(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	v1 := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.SchemaVersion = 1 })
	v2 := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.SchemaVersion = 2 })

	v1.Set(ctx, "cachedZones", []record.Record{{"id": "A"}})
	if _, ok := v2.Get(ctx, "cachedZones"); ok {
		t.Fatalf("entry of another schema version must not be served")
	}
	if _, ok := v1.Get(ctx, "cachedZones"); ok {
		t.Fatalf("mismatched entry should have been deleted")
	}
}

func TestReadFailureIsMiss(t *testing.T) {
	mp := newMemProvider()
	mp.getErr = errors.New("storage unavailable")
	h := &recHooks{}
	cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Hooks = h })
	if _, ok := cc.Get(context.Background(), "k"); ok {
		t.Fatalf("expected miss")
	}
	if h.reads != 1 {
		t.Fatalf("CacheReadFailed calls=%d", h.reads)
	}
}

func TestWriteFailuresNeverReachCaller(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		mp := newMemProvider()
		mp.setErr = errors.New("quota exceeded")
		h := &recHooks{}
		cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Hooks = h })
		cc.Set(ctx, "k", []record.Record{{"id": "1"}})
		if h.writes != 1 {
			t.Fatalf("CacheWriteFailed calls=%d", h.writes)
		}
	})

	t.Run("encode error", func(t *testing.T) {
		h := &recHooks{}
		cc := newTestSnapshots(t, newMemProvider(), func(o *Options[[]record.Record]) { o.Hooks = h })
		cc.Set(ctx, "k", []record.Record{{"id": "1", "ch": make(chan int)}})
		if h.writes != 1 {
			t.Fatalf("CacheWriteFailed calls=%d", h.writes)
		}
	})

	t.Run("panic", func(t *testing.T) {
		h := &recHooks{}
		cc := newTestSnapshots(t, panicProvider{newMemProvider()}, func(o *Options[[]record.Record]) { o.Hooks = h })
		cc.Set(ctx, "k", []record.Record{{"id": "1"}})
		if h.writes != 1 {
			t.Fatalf("CacheWriteFailed calls=%d", h.writes)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		mp := newMemProvider()
		mp.reject = true
		h := &recHooks{}
		cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Hooks = h })
		cc.Set(ctx, "k", []record.Record{{"id": "1"}})
		if h.rejected != 1 || h.writes != 0 {
			t.Fatalf("rejected=%d writes=%d", h.rejected, h.writes)
		}
	})
}

func TestGenSnapshotErrorSkipsWriteAndMisses(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	gs := failingGenStore{GenStore: gen.NewLocalGenStore(0, 0)}
	cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.GenStore = gs })
	cc.Set(ctx, "k", []record.Record{{"id": "1"}})

	bad := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) {
		o.GenStore = failingGenStore{GenStore: gen.NewLocalGenStore(0, 0), snapErr: errors.New("redis down")}
	})
	if _, ok := bad.Get(ctx, "k"); ok {
		t.Fatalf("Get should miss when generations are unavailable")
	}
	if bad.SetWithGen(ctx, "k", []record.Record{}, 0) {
		t.Fatalf("SetWithGen should skip when generations are unavailable")
	}
}

func TestInvalidateErrors(t *testing.T) {
	ctx := context.Background()
	bumpErr := errors.New("bump failed")
	delErr := errors.New("del failed")

	t.Run("delete only fails", func(t *testing.T) {
		mp := newMemProvider()
		cc := newTestSnapshots(t, mp, nil)
		cc.Set(ctx, "k", []record.Record{{"id": "1"}})
		mp.delErr = delErr
		if err := cc.Invalidate(ctx, "k"); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
		// entry still there but framed below the bumped generation
		mp.delErr = nil
		if _, ok := cc.Get(ctx, "k"); ok {
			t.Fatalf("stale entry served after invalidate")
		}
	})

	t.Run("both fail", func(t *testing.T) {
		mp := newMemProvider()
		mp.delErr = delErr
		h := &recHooks{}
		cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) {
			o.Hooks = h
			o.GenStore = failingGenStore{GenStore: gen.NewLocalGenStore(0, 0), bumpErr: bumpErr}
		})
		err := cc.Invalidate(ctx, "k")
		var ie *InvalidateError
		if !errors.As(err, &ie) {
			t.Fatalf("expected InvalidateError, got %v", err)
		}
		if !errors.Is(err, bumpErr) || !errors.Is(err, delErr) {
			t.Fatalf("InvalidateError should unwrap both causes: %v", err)
		}
		if h.outages != 1 {
			t.Fatalf("InvalidateOutage calls=%d", h.outages)
		}
	})
}

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	cc := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Disabled = true })
	if cc.Enabled() {
		t.Fatalf("expected disabled")
	}
	cc.Set(ctx, "k", []record.Record{{"id": "1"}})
	if mp.sets != 0 {
		t.Fatalf("disabled cache wrote to provider")
	}
	if _, ok := cc.Get(ctx, "k"); ok {
		t.Fatalf("disabled cache should always miss")
	}
	if err := cc.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate on disabled cache: %v", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	a := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Namespace = "a" })
	b := newTestSnapshots(t, mp, func(o *Options[[]record.Record]) { o.Namespace = "b" })
	a.Set(ctx, "cachedZones", []record.Record{{"id": "A"}})
	if _, ok := b.Get(ctx, "cachedZones"); ok {
		t.Fatalf("namespaces leaked")
	}
	if !mp.has("snap:a:cachedZones") {
		t.Fatalf("unexpected storage key layout")
	}
}
