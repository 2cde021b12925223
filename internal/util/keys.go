package util

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// maxKeyLen bounds storage keys; longer user keys are replaced by a hash.
const maxKeyLen = 200

// StorageKey isolates a user key under "snap:<ns>:". Keys that would exceed
// maxKeyLen keep a readable prefix and end in a short sha256 suffix.
func StorageKey(ns, key string) string {
	k := "snap:" + ns + ":" + key
	if len(k) <= maxKeyLen {
		return k
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s#%x", k[:maxKeyLen-17], sum[:8])
}

// Scoped builds a cache key for a collection narrowed by ids,
// e.g. Scoped("parkingSpots", "A") == "parkingSpots_A".
func Scoped(base string, scope ...string) string {
	if len(scope) == 0 {
		return base
	}
	return base + "_" + strings.Join(scope, "_")
}
