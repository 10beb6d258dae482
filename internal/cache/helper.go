package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a nil-safe cache over a Redis client. A Store without a client
// always misses and never writes.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb, which may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.rdb != nil
}

// GetJSON reads key into dest. It returns (false, nil) on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and stores it with ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis, or calls fetch to fill dest and stores the result.
// Cache read and write errors degrade to calling fetch.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := s.GetJSON(ctx, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = s.SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate deletes keys.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	s.rdb.Del(ctx, keys...)
}

// Generation returns the current value of a generation counter. Keys built from
// it become unreachable once Bump runs, and expire on their own TTL.
func (s *Store) Generation(ctx context.Context, name string) int64 {
	if !s.Enabled() {
		return 0
	}
	n, err := s.rdb.Get(ctx, name).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Bump advances a generation counter.
func (s *Store) Bump(ctx context.Context, name string) {
	if !s.Enabled() {
		return
	}
	s.rdb.Incr(ctx, name)
}
