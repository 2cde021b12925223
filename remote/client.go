// Package remote defines the document store the loader reads live
// collections from and the views write bookings to.
package remote

import (
	"context"

	"github.com/unkn0wn-root/parkcache/record"
)

// Client fetches whole collections. name is passed through unchanged and
// may be a path such as "zones/A/parkingSpots".
type Client interface {
	// FetchCollection returns every record of the collection in store order.
	// An empty or unknown collection yields an empty list, not an error.
	FetchCollection(ctx context.Context, name string) ([]record.Record, error)
}

// Documents is the per-document CRUD surface used by mutation call sites.
// Field values equal to record.ServerTimestamp are replaced with the
// store's clock.
type Documents interface {
	GetRecord(ctx context.Context, collection, id string) (record.Record, error)
	CreateRecord(ctx context.Context, collection string, fields record.Record) (string, error)
	// UpdateRecord merges patch into the stored document.
	UpdateRecord(ctx context.Context, collection, id string, patch record.Record) error
	DeleteRecord(ctx context.Context, collection, id string) error
}

// Store is a full backing store.
type Store interface {
	Client
	Documents
	Close() error
}

// Seeder loads fixed documents, keeping the ids they carry. Used to set up
// demo data and tests; not part of the app's write path.
type Seeder interface {
	Seed(ctx context.Context, collection string, docs []record.Record) error
}
