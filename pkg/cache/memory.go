package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss indicates the requested key was not found or had expired.
var ErrCacheMiss = errors.New("cache miss")

// DefaultTTL is the default result freshness window.
const DefaultTTL = 30 * time.Second

// Store is the result cache abstraction consumed by the orchestrator.
type Store interface {
	// Get returns the entry for key if it is still fresh, else ErrCacheMiss.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Put stores data under key, unconditionally replacing any entry.
	Put(ctx context.Context, key Key, data []byte) error

	// Len reports the current entry count.
	Len(ctx context.Context) (int, error)
}

// MemoryStore is the default per-process cache. Staleness is detected
// lazily on lookup; there is no background eviction sweep, and distinct
// keys are never capacity-bounded (the parameter domain is finite).
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
}

// NewMemoryStore creates an in-process store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]*Entry),
		ttl:     ttl,
	}
}

// Get returns the stored entry if fresh. An expired entry is evicted and
// reported as a miss. The freshness check and the read are atomic with
// respect to concurrent Put calls.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	k := key.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[k]
	if !ok {
		cacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}
	if entry.Expired(s.ttl) {
		delete(s.entries, k)
		cacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	cacheHits.WithLabelValues("memory").Inc()
	return entry, nil
}

// Put stores data with the current time, overwriting any existing entry.
func (s *MemoryStore) Put(_ context.Context, key Key, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = &Entry{Data: data, CachedAt: time.Now()}
	return nil
}

// Len reports the current entry count, counting not-yet-evicted stale
// entries as present.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}
