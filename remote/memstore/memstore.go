// Package memstore is an in-process remote.Store. Collections keep
// insertion order, ids are random UUIDs.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

type collection struct {
	order []string
	docs  map[string]record.Record
}

type Store struct {
	mu    sync.RWMutex
	colls map[string]*collection
	fail  map[string]error
	now   func() time.Time
	newID func() string
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		colls: make(map[string]*collection),
		fail:  make(map[string]error),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// SetClock replaces the clock used for server timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Fail makes every operation on the collection return err until cleared
// with Fail(name, nil).
func (s *Store) Fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, name)
		return
	}
	s.fail[name] = err
}

// Put stores a document under an explicit id, replacing any existing one.
// Used for seeding.
func (s *Store) Put(name string, r record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.ID()
	if id == "" {
		id = s.newID()
	}
	c := s.coll(name)
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = r.ResolveTimestamps(s.now()).WithID(id)
}

func (s *Store) coll(name string) *collection {
	c, ok := s.colls[name]
	if !ok {
		c = &collection{docs: make(map[string]record.Record)}
		s.colls[name] = c
	}
	return c
}

func (s *Store) FetchCollection(ctx context.Context, name string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail[name]; err != nil {
		return nil, err
	}
	c, ok := s.colls[name]
	if !ok {
		return []record.Record{}, nil
	}
	out := make([]record.Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id].Clone())
	}
	return out, nil
}

func (s *Store) GetRecord(ctx context.Context, name, id string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail[name]; err != nil {
		return nil, err
	}
	c, ok := s.colls[name]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	r, ok := c.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) CreateRecord(ctx context.Context, name string, fields record.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[name]; err != nil {
		return "", err
	}
	id := s.newID()
	c := s.coll(name)
	c.order = append(c.order, id)
	c.docs[id] = fields.ResolveTimestamps(s.now()).WithID(id)
	return id, nil
}

func (s *Store) UpdateRecord(ctx context.Context, name, id string, patch record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[name]; err != nil {
		return err
	}
	c, ok := s.colls[name]
	if !ok {
		return fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	cur, ok := c.docs[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", name, id, remote.ErrNotFound)
	}
	next := cur.Clone()
	for k, v := range patch.ResolveTimestamps(s.now()) {
		if k == record.IDField {
			continue
		}
		next[k] = v
	}
	c.docs[id] = next
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[name]; err != nil {
		return err
	}
	c, ok := s.colls[name]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

var _ remote.Seeder = (*Store)(nil)

func (s *Store) Seed(ctx context.Context, name string, docs []record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, d := range docs {
		s.Put(name, d)
	}
	return nil
}
