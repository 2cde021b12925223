package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/parkcache"
)

type countHooks struct {
	parkcache.NopHooks
	mu    sync.Mutex
	heals int
	gate  chan struct{}
}

func (c *countHooks) SelfHeal(string, string) {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	c.heals++
	c.mu.Unlock()
}

func TestEventsDeliveredBeforeClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "corrupt")
	}
	h.Close()
	if inner.heals != 10 {
		t.Fatalf("heals=%d", inner.heals)
	}
	h.SelfHeal("k", "corrupt")
	if h.Dropped() != 1 {
		t.Fatalf("event after Close should be dropped, dropped=%d", h.Dropped())
	}
}

func TestFullQueueDrops(t *testing.T) {
	inner := &countHooks{gate: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event blocks the worker, one fills the queue, the rest drop
	for i := 0; i < 5; i++ {
		h.SelfHeal("k", "corrupt")
	}
	if h.Dropped() < 3 {
		t.Fatalf("expected at least 3 drops, got %d", h.Dropped())
	}
	close(inner.gate)
	h.Close()
}
