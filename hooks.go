package parkcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache and loader call them on hot paths.
type Hooks interface {
	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "schema_mismatch", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider Get failed; the read was served as a miss.
	CacheReadFailed(storageKey string, err error)

	// Encode or provider Set failed; the snapshot was not stored.
	CacheWriteFailed(storageKey string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump).
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Invalidate (likely backend outage).
	InvalidateOutage(key string, bumpErr, delErr error)

	// A live fetch failed and was surfaced on the subscription state.
	LiveFetchFailed(collection string, err error)

	// A result arrived for a superseded or closed invocation and was dropped.
	// source ∈ {"cache", "live"}
	StaleDiscarded(storageKey, source string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) CacheReadFailed(string, error)         {}
func (NopHooks) CacheWriteFailed(string, error)        {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(string, error)        {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
func (NopHooks) LiveFetchFailed(string, error)         {}
func (NopHooks) StaleDiscarded(string, string)         {}
