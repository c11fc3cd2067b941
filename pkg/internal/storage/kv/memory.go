package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// MemoryKV is a process-local store. Expired entries are dropped lazily on
// access. Entries are stored by pointer so CompareAndDelete can compare them.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV creates an empty store.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return &MemoryKV{now: time.Now}, nil
}

func (m *MemoryKV) load(key string) ([]byte, bool) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, false
	}

	entry := v.(*memoryEntry)
	if entry.expired(m.now()) {
		m.data.CompareAndDelete(key, v)

		return nil, false
	}

	return entry.value, true
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.load(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(data))
	copy(result, data)

	return result, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)

	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.data.Store(key, entry)

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)

	return nil
}

func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.load(key)

	return ok, nil
}

func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0)
	now := m.now()

	m.data.Range(func(key, value any) bool {
		k := key.(string)
		if value.(*memoryEntry).expired(now) || !matchKey(pattern, k) {
			return true
		}

		keys = append(keys, k)

		return true
	})

	return keys, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(configs.KVTypeMemory, NewMemoryKV)
}
