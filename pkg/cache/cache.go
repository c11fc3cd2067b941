// Package cache is a typed cache on top of a KV store.
//
// Values are encoded with sonic and stored with a TTL. Concurrent misses on
// the same key are collapsed into a single load.
//
// Example:
//
//	c := cache.NewCache(kvStore)
//
//	files, err := cache.GetOrSet(ctx, c, cache.Key("files.owner", ownerID), func() ([]model.File, error) {
//		return records.FindByOwner(ctx, ownerID)
//	}, 5*time.Minute)
//
//	// after a write
//	_ = c.Delete(ctx, cache.Key("files.owner", ownerID))
//
// A miss is reported by Get as kv.ErrKeyNotFound. GetOrSet never fails
// because of the cache itself: a broken store only costs a reload.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filevault/pkg/internal/storage/kv"
)

// Cache is safe for concurrent use when the underlying store is.
type Cache struct {
	kvStore kv.KVStore
	group   singleflight.Group
}

// NewCache returns a cache over kvStore.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// Key builds "<namespace>.<digest>" where digest is the hex xxhash of parts.
// The result only uses characters every KV backend accepts.
func Key(namespace string, parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x00"))

	return namespace + "." + strconv.FormatUint(sum, 16)
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrKeyNotFound)
}

// Get returns the cached value of key.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set stores value under key; ttl <= 0 keeps it until deleted.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists reports whether key is cached.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet returns the cached value of key, loading and storing it with
// getter on a miss. Only getter errors are returned.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Clear removes every key matching pattern; "" clears everything.
func (c *Cache) Clear(ctx context.Context, pattern string) error {
	keys, err := c.kvStore.Keys(ctx, pattern)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
