package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgredis "github.com/jmarchetti/storefront-backend/pkg/redis"
)

// Backend is the subset of the redis client the cache layer depends on.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// PatternBackend additionally supports keyspace scans, enabling
// pattern-based purges.
type PatternBackend interface {
	Backend
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Store reads and writes JSON payloads with a fixed TTL.
type Store struct {
	backend Backend
	ttl     time.Duration
}

// NewStore builds a cache store over the provided backend.
func NewStore(backend Backend, ttl time.Duration) (*Store, error) {
	if backend == nil {
		return nil, errors.New("cache backend required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{backend: backend, ttl: ttl}, nil
}

// TTL returns the entry lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// GetJSON loads the value at key into dest. The boolean reports a hit;
// a backend failure is returned as an error so callers can degrade to a
// direct read.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// A corrupt entry behaves like a miss; the write path replaces it.
		return false, nil
	}
	return true, nil
}

// SetJSON stores value at key with the configured TTL.
func (s *Store) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, string(raw), s.ttl)
}

// Delete removes the provided keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.backend.Del(ctx, keys...)
}
