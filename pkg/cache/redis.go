package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps cache entries in Redis, letting results survive process
// restarts. Expiry is enforced by Redis key TTLs; the stored creation
// instant is kept for the freshness check to stay identical to MemoryStore.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{redis: client, ttl: ttl}
}

// Get returns the stored entry if fresh, else ErrCacheMiss.
func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.WithLabelValues("redis").Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}

	if entry.Expired(s.ttl) {
		_ = s.redis.Del(ctx, key.String()).Err()
		cacheMisses.WithLabelValues("redis").Inc()
		return nil, ErrCacheMiss
	}

	cacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Put stores data with the current time, overwriting any existing entry.
func (s *RedisStore) Put(ctx context.Context, key Key, data []byte) error {
	entry := Entry{Data: data, CachedAt: time.Now()}

	payload, err := json.Marshal(&entry)
	if err != nil {
		cacheErrors.WithLabelValues("redis", "put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), payload, s.ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("redis", "put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Len reports the current entry count under the screener key prefix.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, "screener:*", 100).Result()
		if err != nil {
			cacheErrors.WithLabelValues("redis", "len").Inc()
			return 0, fmt.Errorf("redis scan: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
