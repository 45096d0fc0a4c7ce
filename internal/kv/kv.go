// Package kv provides the key/value persistence layer for ocwatch.
//
// Feed history and cached API pages are stored as opaque JSON blobs keyed by
// string. Two implementations exist: an in-memory store for tests and a
// SQLite-backed store for production.
package kv

// Store is the abstract key/value store used by the response cache and the
// backfill engine's incremental persistence.
//
// Values are opaque byte slices; callers are expected to store JSON. A value
// may be several megabytes (thousands of accumulated feed items).
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent.
	Get(key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns every key currently present.
	Keys() ([]string, error)
}
