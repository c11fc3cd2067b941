// Package kv is the key-value abstraction behind sessions and the listing
// cache. Backends register a factory for their configs.KVType from init.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
)

// ErrKeyNotFound is returned by Get when the key is absent or expired.
var ErrKeyNotFound = errors.New("kv: key not found")

// KVStore is implemented by every backend. Keys are restricted to
// [-/_=.a-zA-Z0-9] so that every backend accepts them.
type KVStore interface {
	// Get returns ErrKeyNotFound for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; absent keys are not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists keys matching a glob pattern; "" matches everything.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Client wraps the configured store.
type Client struct {
	KVStore
	Type configs.KVType
}

// KVFactory builds a store from the KV section.
type KVFactory func(ctx context.Context, cfg *configs.KVConfig) (KVStore, error)

var kvFactories = make(map[configs.KVType]KVFactory)

// RegisterKVFactory registers the factory of a backend.
func RegisterKVFactory(kvType configs.KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes lists the compiled-in backends, sorted.
func GetRegisteredKVTypes() []configs.KVType {
	types := make([]configs.KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	slices.Sort(types)

	return types
}

// NewKVStore builds the store of the configured type.
func NewKVStore(ctx context.Context, cfg *configs.KVConfig) (KVStore, error) {
	factory, exists := kvFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", cfg.Type)
	}

	return factory(ctx, cfg)
}

// New returns a Client for cfg.
func New(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	store, err := NewKVStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: cfg.Type}, nil
}

// Ping checks that the store answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Exists(ctx, "health.ping")

	return err
}

func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}
