package parkcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

// Params identify one cached collection: the remote collection to fetch
// and the cache key its snapshot is stored under.
type Params struct {
	CollectionName string
	StorageKey     string
}

func (p Params) valid() bool {
	return p.CollectionName != "" && p.StorageKey != ""
}

// LoaderOptions configure a Loader. Cache and Remote are required.
type LoaderOptions struct {
	Cache  Snapshots
	Remote remote.Client

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// FetchTimeout bounds each live fetch. 0 => no timeout; a fetch that
	// never returns leaves the subscription loading.
	FetchTimeout time.Duration
}

// Loader hands out subscriptions that show the cached snapshot of a
// collection first and then the live collection.
//
// One Loader is created per process and shared by every view.
type Loader struct {
	cache        Snapshots
	remote       remote.Client
	log          Logger
	hooks        Hooks
	fetchTimeout time.Duration

	writes sync.WaitGroup
}

func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.Cache == nil {
		return nil, errors.New("parkcache: cache is required")
	}
	if opts.Remote == nil {
		return nil, errors.New("parkcache: remote client is required")
	}
	return &Loader{
		cache:        opts.Cache,
		remote:       opts.Remote,
		log:          coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:        coalesce[Hooks](opts.Hooks, NopHooks{}),
		fetchTimeout: opts.FetchTimeout,
	}, nil
}

// Use subscribes to the collection described by p and starts its first
// invocation. The subscription ends when ctx is done or Close is called.
func (l *Loader) Use(ctx context.Context, p Params) *Subscription {
	s := &Subscription{
		l:       l,
		parent:  ctx,
		state:   emptyState(),
		changed: make(chan struct{}),
	}
	s.mu.Lock()
	s.invokeLocked(p, false)
	s.stop = context.AfterFunc(ctx, s.Close)
	s.mu.Unlock()
	return s
}

// Wait blocks until every background snapshot write has finished.
func (l *Loader) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// save persists a live result in the background. It runs even when the
// result itself was discarded; the generation check still keeps a fetch
// that raced a mutation out of the cache.
func (l *Loader) save(ctx context.Context, key string, data []record.Record, observedGen uint64) {
	l.writes.Add(1)
	go func() {
		defer l.writes.Done()
		if !l.cache.SetWithGen(ctx, key, data, observedGen) {
			l.log.Debug("snapshot not saved", Fields{"key": key, "obs": observedGen})
		}
	}()
}
