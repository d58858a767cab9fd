package cache

import "time"

// Entry is one cached pipeline result with its creation instant. Entries
// are replaced wholesale on every re-fetch, never partially updated.
type Entry struct {
	// Data is the serialized pipeline result.
	Data []byte `json:"data"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}

// Expired reports whether the entry is older than ttl.
func (e *Entry) Expired(ttl time.Duration) bool {
	return e.Age() > ttl
}
