package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang/groupcache"

	"github.com/yeisme/filevault/pkg/configs"
)

var (
	errTooLarge = errors.New("blob exceeds cache item limit")
	groupSeq    atomic.Int64
)

// CachedStore serves small blobs from an in-process groupcache group.
// Blobs are immutable and their paths are never reused, so cached bytes can
// only go stale after a delete, and deleted blobs are unreachable because
// every read is preceded by a record lookup. Oversized blobs are rejected by
// the loader after a Stat and then streamed from the inner store.
type CachedStore struct {
	Store

	group        *groupcache.Group
	maxItemBytes int64
}

// NewCachedStore wraps inner. groupcache group names are process-global,
// so each instance gets a numbered name.
func NewCachedStore(inner Store, cfg configs.BlobCacheConfig) *CachedStore {
	c := &CachedStore{Store: inner, maxItemBytes: cfg.MaxItemBytes}

	name := cfg.Name
	if name == "" {
		name = configs.DefaultBlobCacheName
	}

	name = fmt.Sprintf("%s-%d", name, groupSeq.Add(1))
	c.group = groupcache.NewGroup(name, cfg.CacheBytes, groupcache.GetterFunc(c.load))

	return c
}

func (c *CachedStore) load(ctx context.Context, key string, dest groupcache.Sink) error {
	size, err := c.Store.Stat(ctx, key)
	if err != nil {
		return err
	}

	if size > c.maxItemBytes {
		return errTooLarge
	}

	rc, err := c.Store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read blob for cache: %w", err)
	}

	return dest.SetBytes(data)
}

func (c *CachedStore) Get(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	var data []byte

	err := c.group.Get(ctx, storagePath, groupcache.AllocatingByteSliceSink(&data))
	if errors.Is(err, errTooLarge) {
		return c.Store.Get(ctx, storagePath)
	}

	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stats exposes the groupcache counters of the main cache.
func (c *CachedStore) Stats() groupcache.CacheStats {
	return c.group.CacheStats(groupcache.MainCache)
}
