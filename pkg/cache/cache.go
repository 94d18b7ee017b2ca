// Package cache is the advisory Redis layer in front of the inventory store.
//
// The cache is never authoritative: order placement reads stock under a row
// lock and ignores this package entirely. Every operation here degrades to a
// miss or a no-op when Redis is unreachable, so callers treat "cache down"
// exactly like "cache miss" and fall back to the database.
//
// The Store is an explicitly constructed, injected dependency — its lifecycle
// belongs to the process bootstrap, not to package import.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Well-known key prefixes, shared by the stock read path and the
// post-commit invalidation.
const (
	KeyProductPrefix = "product:"
	KeyStockPrefix   = "stock:"
	KeyStockAll      = "stock:all"
	KeyProductList   = "products:list"
	KeyCategoryList  = "categories:list"
)

// ProductKey returns the cache key for one product record.
func ProductKey(productID string) string { return KeyProductPrefix + productID }

// StockKey returns the cache key for one product's stock count.
func StockKey(productID string) string { return KeyStockPrefix + productID }

// Store is the cache capability consumed by services.
//
// Get reports a hit by returning true; misses and infrastructure failures
// are indistinguishable to the caller, by contract.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	Decrement(ctx context.Context, key string, amount int64) (int64, bool)
}

// Connect dials Redis and verifies the connection with a ping.
// On failure it returns the Disconnected store together with the error, so
// the bootstrap can log a warning and run without caching.
func Connect(addr, password string) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return Disconnected{}, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &Redis{client: client}, nil
}

// ── Redis store ──────────────────────────────────────────────────────────────

// Redis is the live Store backed by a redis.Client. Values are JSON-encoded.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client, mainly for tests.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Decrement(ctx context.Context, key string, amount int64) (int64, bool) {
	n, err := r.client.DecrBy(ctx, key, amount).Result()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Close releases the underlying client. Called by the bootstrap on shutdown.
func (r *Redis) Close() error {
	return r.client.Close()
}

// ── Disconnected store ───────────────────────────────────────────────────────

// Disconnected is the Store used when Redis is unavailable. Every read is a
// miss and every write is a no-op, which callers already tolerate.
type Disconnected struct{}

func (Disconnected) Get(context.Context, string, interface{}) bool { return false }

func (Disconnected) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (Disconnected) Invalidate(context.Context, ...string) error { return nil }

func (Disconnected) Decrement(context.Context, string, int64) (int64, bool) { return 0, false }
