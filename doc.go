// Package parkcache is a cache-then-reconcile data layer for collection
// reads. A view subscribes to a collection and sees the locally stored
// snapshot at once, then the live collection when the remote fetch returns;
// the live list is written back as the next snapshot.
//
// Components:
//   - Provider: durable byte store (SQLite, in-memory, BigCache, Ristretto, Redis).
//   - Codec[V]: (de)serializes V <-> []byte. JSON by default.
//   - Cache[V]: typed accessor. Reads and writes never fail the caller.
//   - GenStore: generation counter per snapshot key, bumped by Invalidate.
//   - Loader/Subscription: per-view state with a stale-response guard.
//
// Keys:
//
//	snap:<ns>:<key>  - one collection snapshot
//
// Mutation pattern:
//
//	_ = docs.DeleteRecord(ctx, "parkingBookings", id)
//	_ = cache.Invalidate(ctx, "cachedBookings") // racing fetches won't re-seed it
package parkcache
