// Package redis implements store.Store on Redis, the production backend
// for the export worker. Queues are Redis lists (RPUSH/BLPOP gives FIFO
// with a server-side blocking pop) and status slots are plain keys with
// SET EX expiry.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	export "github.com/teacurran/WireTuner/worker-export"
	"github.com/teacurran/WireTuner/worker-export/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements store.Store backed by Redis.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// New creates a Redis-backed store. The caller owns the Redis client
// lifecycle; a single go-redis client multiplexes connections and is safe
// for use by every worker goroutine.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// PushBack appends the payload to the tail of the list at key.
func (s *Store) PushBack(ctx context.Context, key string, payload []byte) error {
	if err := s.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("export/redis: push %s: %w", key, err)
	}
	return nil
}

// PopFront blocks on BLPOP for up to timeout and returns the oldest
// entry, or (nil, nil) when the window elapses with the list empty.
func (s *Store) PopFront(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := s.client.BLPop(ctx, timeout, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("export/redis: pop %s: %w", key, err)
	}
	// BLPOP replies [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("export/redis: pop %s: unexpected reply length %d", key, len(res))
	}
	return []byte(res[1]), nil
}

// SetWithExpiry upserts the slot at key with the given TTL.
func (s *Store) SetWithExpiry(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("export/redis: set %s: %w", key, err)
	}
	return nil
}

// Get returns the slot value, or export.ErrNotFound once the TTL elapsed.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, export.ErrNotFound
		}
		return nil, fmt.Errorf("export/redis: get %s: %w", key, err)
	}
	return val, nil
}

// Length returns the current length of the list at key.
func (s *Store) Length(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("export/redis: llen %s: %w", key, err)
	}
	return n, nil
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
