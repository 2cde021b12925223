package parkcache

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

// Subscription is one view's reactive handle on a cached collection.
//
// Every invocation (Use, a changed Update, Refresh) gets a new generation.
// Results from the cache read and the live fetch carry the generation they
// were started under and are dropped if it is no longer current.
type Subscription struct {
	l      *Loader
	parent context.Context
	stop   func() bool

	mu          sync.Mutex
	params      Params
	gen         uint64
	cancel      context.CancelFunc
	liveApplied bool
	reading     bool
	state       State
	changed     chan struct{}
	closed      bool
}

// State returns the current state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Params returns the parameters of the current invocation.
func (s *Subscription) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Changed returns a channel closed on the next state change.
func (s *Subscription) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Settled waits until the current invocation has finished its live fetch
// and its cache read, then returns the state.
func (s *Subscription) Settled(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		st, ch, done, closed := s.state, s.changed, !s.state.Loading && !s.reading, s.closed
		s.mu.Unlock()
		if done {
			return st, nil
		}
		if closed {
			return st, ErrClosed
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Update re-invokes the subscription with new parameters. Data from the
// previous invocation stays visible until the new one produces something.
// Unchanged parameters are a no-op.
func (s *Subscription) Update(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || p == s.params {
		return
	}
	s.invokeLocked(p, true)
}

// Refresh re-invokes the subscription with the same parameters.
func (s *Subscription) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.invokeLocked(s.params, true)
}

// Close ends the subscription. In-flight results are discarded.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	if s.stop != nil {
		s.stop()
	}
	s.notifyLocked()
}

func (s *Subscription) invokeLocked(p Params, retain bool) {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.params = p
	s.liveApplied = false

	data := []record.Record{}
	if retain {
		data = s.state.Data
	}

	if !p.valid() {
		s.reading = false
		s.state = State{Data: data, Err: ErrInvalidParams, Phase: PhaseError}
		s.notifyLocked()
		return
	}

	s.reading = true
	s.state = State{Data: data, Loading: true, Phase: PhaseEmpty}
	s.notifyLocked()

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	g := s.gen
	obs := s.l.cache.SnapshotGen(p.StorageKey)
	go s.readCache(ctx, g, p)
	go s.fetchLive(ctx, g, p, obs)
}

func (s *Subscription) readCache(ctx context.Context, g uint64, p Params) {
	data, ok := s.l.cache.Get(ctx, p.StorageKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.gen {
		s.discardLocked(p, "cache")
		return
	}
	s.reading = false
	// live wins over cache regardless of arrival order
	if ok && len(data) > 0 && !s.liveApplied {
		s.state.Data = data
		if s.state.Phase == PhaseEmpty {
			s.state.Phase = PhaseCached
		}
	}
	s.notifyLocked()
}

func (s *Subscription) fetchLive(ctx context.Context, g uint64, p Params, observedGen uint64) {
	fctx := ctx
	if s.l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.l.fetchTimeout)
		defer cancel()
	}
	data, err := s.l.remote.FetchCollection(fctx, p.CollectionName)
	if err == nil {
		if data == nil {
			data = []record.Record{}
		}
		s.l.save(context.WithoutCancel(ctx), p.StorageKey, data, observedGen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.gen {
		s.discardLocked(p, "live")
		return
	}
	if err != nil {
		fe := remote.AsFetchError(p.CollectionName, err)
		s.l.log.Warn("live fetch failed", Fields{"collection": p.CollectionName, "kind": string(fe.Kind), "err": err})
		s.l.hooks.LiveFetchFailed(p.CollectionName, fe)
		s.state.Loading = false
		s.state.Err = fe
		s.state.Phase = PhaseError
		s.notifyLocked()
		return
	}
	s.liveApplied = true
	s.state = State{Data: data, Phase: PhaseLive}
	s.notifyLocked()
}

func (s *Subscription) discardLocked(p Params, source string) {
	s.l.log.Debug("stale result discarded", Fields{"key": p.StorageKey, "source": source})
	s.l.hooks.StaleDiscarded(p.StorageKey, source)
}

func (s *Subscription) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
