package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// probeTimeout bounds the liveness round-trip so a wedged store cannot stall
// request handling.
const probeTimeout = 3 * time.Second

// Redis is the durable backend, talking to a hosted Redis-compatible KV
// service. It is only constructed when the connection URL is configured;
// reachability is verified separately via Probe.
type Redis struct {
	rdb *goredis.Client
}

// NewRedis parses a redis:// or rediss:// connection URL and returns the
// durable backend. A non-empty token overrides the password embedded in the
// URL (hosted KV services hand these out separately).
func NewRedis(url, token string) (*Redis, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse kv url: %w", err)
	}
	if token != "" {
		opt.Password = token
	}
	return &Redis{rdb: goredis.NewClient(opt)}, nil
}

// Probe confirms the service is truly reachable, not merely configured, by
// round-tripping a throwaway key: write, read back, delete.
func (r *Redis) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	key := "probe:" + uuid.NewString()
	if err := r.rdb.Set(ctx, key, "1", time.Minute).Err(); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	if _, err := r.rdb.Get(ctx, key).Result(); err != nil {
		return fmt.Errorf("probe read: %w", err)
	}
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("probe delete: %w", err)
	}
	return nil
}

// Get returns the value stored under key, or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set stores value under key with no TTL; record expiry is enforced at read
// time by the lifecycle layer, not by the store.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

// Delete removes key; absent keys are a no-op.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

// Keys enumerates keys with the given prefix using SCAN (never KEYS, which
// blocks the server on large keyspaces).
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
