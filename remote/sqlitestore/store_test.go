package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/unkn0wn-root/parkcache/record"
	"github.com/unkn0wn-root/parkcache/remote"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "remote.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateFetchOrderAndTimestamps(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }

	a, err := s.CreateRecord(ctx, "parkingBookings", record.Record{"userId": "u1", "createdAt": record.ServerTimestamp})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateRecord(ctx, "parkingBookings", record.Record{"userId": "u2"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.FetchCollection(ctx, "parkingBookings")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID() != a || got[1].ID() != b {
		t.Fatalf("unexpected %v", got)
	}
	if got[0]["createdAt"] != "2024-03-01T08:00:00Z" {
		t.Fatalf("createdAt=%v", got[0]["createdAt"])
	}
}

func TestFetchEmptyCollection(t *testing.T) {
	got, err := openTemp(t).FetchCollection(context.Background(), "zones/A/parkingSpots")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestPutUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	if _, err := s.Put(ctx, "zones", record.Record{"id": "A", "name": "Zone A", "availableSpots": 5}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "zones", record.Record{"id": "B", "name": "Zone B"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRecord(ctx, "zones", "A", record.Record{"availableSpots": 4}); err != nil {
		t.Fatal(err)
	}
	r, err := s.GetRecord(ctx, "zones", "A")
	if err != nil {
		t.Fatal(err)
	}
	if r.Int("availableSpots") != 4 || r["name"] != "Zone A" || r.ID() != "A" {
		t.Fatalf("unexpected %v", r)
	}

	if err := s.UpdateRecord(ctx, "zones", "Z", record.Record{"x": 1}); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRecord(ctx, "zones", "Z"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteRecord(ctx, "zones", "A"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.FetchCollection(ctx, "zones")
	if len(got) != 1 || got[0].ID() != "B" {
		t.Fatalf("unexpected after delete %v", got)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	_, _ = s.Put(ctx, "zones/A/parkingSpots", record.Record{"id": "1"})
	_, _ = s.Put(ctx, "zones/B/parkingSpots", record.Record{"id": "1"})
	a, _ := s.FetchCollection(ctx, "zones/A/parkingSpots")
	b, _ := s.FetchCollection(ctx, "zones/B/parkingSpots")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("a=%v b=%v", a, b)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	zones := []record.Record{{"id": "A", "name": "Zone A"}, {"id": "B", "name": "Zone B"}}
	if err := s.Seed(ctx, "zones", zones); err != nil {
		t.Fatal(err)
	}
	if err := s.Seed(ctx, "zones", zones); err != nil {
		t.Fatal(err)
	}
	got, _ := s.FetchCollection(ctx, "zones")
	if len(got) != 2 || got[0].ID() != "A" || got[1].ID() != "B" {
		t.Fatalf("unexpected %v", got)
	}
}
