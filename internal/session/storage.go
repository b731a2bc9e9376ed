// Package session provides the session storage backend plus the flash-message
// and CSRF-token helpers built on top of it.
package session

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage adapts a go-redis client to fiber's session Storage interface.
type RedisStorage struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisStorage connects to Redis at addr (host:port or redis:// URL) and
// returns a session storage backed by it. Returns nil when addr is empty or
// unreachable so the caller can fall back to in-memory sessions.
func NewRedisStorage(addr string) *RedisStorage {
	if addr == "" {
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis session storage disabled: invalid REDIS_URL %q: %v", addr, err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis session storage disabled: %v (falling back to in-memory sessions)", err)
		return nil
	}

	return &RedisStorage{client: client, ctx: ctx}
}

// NewRedisStorageWithClient wraps an existing client; used by tests.
func NewRedisStorageWithClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, ctx: context.Background()}
}

func (s *RedisStorage) key(k string) string {
	return "session:" + k
}

// Get retrieves a session value by key. A missing key yields (nil, nil).
func (s *RedisStorage) Get(key string) ([]byte, error) {
	val, err := s.client.Get(s.ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return val, err
}

// Set stores a session value with the given expiration.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return s.client.Set(s.ctx, s.key(key), val, exp).Err()
}

// Delete removes a session value.
func (s *RedisStorage) Delete(key string) error {
	return s.client.Del(s.ctx, s.key(key)).Err()
}

// Reset removes all session values.
func (s *RedisStorage) Reset() error {
	iter := s.client.Scan(s.ctx, 0, s.key("*"), 0).Iterator()
	var keys []string
	for iter.Next(s.ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(s.ctx, keys...).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
